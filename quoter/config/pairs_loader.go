package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// FileReader defines the interface for reading files
type FileReader interface {
	// ReadFile reads the file at the given path and returns the contents
	ReadFile(path string) ([]byte, error)
}

// DefaultFileReader implements FileReader using os.ReadFile
type DefaultFileReader struct{}

func (d *DefaultFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// PairsLoader loads pair presets through a FileReader
type PairsLoader struct {
	fileReader FileReader
}

func NewPairsLoader(fileReader FileReader) *PairsLoader {
	return &PairsLoader{fileReader: fileReader}
}

func NewDefaultPairsLoader() *PairsLoader {
	return NewPairsLoader(&DefaultFileReader{})
}

// LoadPairs reads and checks the pair presets file. Fee parameter ranges are
// checked when the presets are turned into pair parameters.
func (l *PairsLoader) LoadPairs(path string) ([]PairPreset, error) {
	if !strings.HasSuffix(path, ".toml") {
		return nil, fmt.Errorf("pairs file must be a toml file")
	}
	body, err := l.fileReader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pairs file: %w", err)
	}

	var pairs PairsConfig
	if err := toml.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pairs file: %w", err)
	}
	if err := verifyPairs(pairs.Pairs); err != nil {
		return nil, fmt.Errorf("failed to verify pairs file: %w", err)
	}

	return pairs.Pairs, nil
}

func verifyPairs(pairs []PairPreset) error {
	if len(pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}

	seen := make(map[string]struct{}, len(pairs))
	for i, pair := range pairs {
		if pair.Name == "" {
			return fmt.Errorf("pair %d: name is required", i)
		}
		if _, ok := seen[pair.Name]; ok {
			return fmt.Errorf("pair %s: duplicate name", pair.Name)
		}
		seen[pair.Name] = struct{}{}

		if pair.BinStep == 0 {
			return fmt.Errorf("pair %s: bin_step must be positive", pair.Name)
		}
		if err := verifyBins(pair); err != nil {
			return err
		}
	}
	return nil
}

func verifyBins(pair PairPreset) error {
	ids := make(map[uint32]struct{}, len(pair.Bins))
	for _, bin := range pair.Bins {
		if bin.ID == 0 || bin.ID >= 1<<24 {
			return fmt.Errorf("pair %s: bin id %d must be in [1, 2^24)", pair.Name, bin.ID)
		}
		if bin.ID == pair.ActiveID {
			return fmt.Errorf("pair %s: bin %d is the active bin, use reserve_x and reserve_y", pair.Name, bin.ID)
		}
		if _, ok := ids[bin.ID]; ok {
			return fmt.Errorf("pair %s: duplicate bin %d", pair.Name, bin.ID)
		}
		ids[bin.ID] = struct{}{}
	}
	return nil
}
