package config

type RPCQuoterConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// quoter configs
	PairsFile      string `toml:"pairs_file" mapstructure:"pairs_file"`
	PriceCacheSize int    `toml:"price_cache_size" mapstructure:"price_cache_size"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`
}

// PairsConfig is the layout of the pair presets file
type PairsConfig struct {
	Pairs []PairPreset `toml:"pairs"`
}

// PairPreset describes a pair the quoter serves. Fee settings follow the pair
// parameter fields; reserves are base 10 strings because they can exceed 64 bits.
type PairPreset struct {
	Name    string `toml:"name"`
	BinStep uint16 `toml:"bin_step"`

	BaseFactor               uint16 `toml:"base_factor"`
	FilterPeriod             uint16 `toml:"filter_period"`
	DecayPeriod              uint16 `toml:"decay_period"`
	ReductionFactor          uint16 `toml:"reduction_factor"`
	VariableFeeControl       uint32 `toml:"variable_fee_control"`
	ProtocolShare            uint16 `toml:"protocol_share"`
	MaxVolatilityAccumulator uint32 `toml:"max_volatility_accumulator"`

	ActiveID              uint32 `toml:"active_id"`
	VolatilityAccumulator uint32 `toml:"volatility_accumulator"`

	// reserves of the active bin
	ReserveX string `toml:"reserve_x"`
	ReserveY string `toml:"reserve_y"`

	// Bins holds the other funded bins; swaps walk them once the active bin
	// is drained
	Bins []BinPreset `toml:"bins"`
}

// BinPreset is the reserves of one bin besides the active one
type BinPreset struct {
	ID       uint32 `toml:"id"`
	ReserveX string `toml:"reserve_x"`
	ReserveY string `toml:"reserve_y"`
}
