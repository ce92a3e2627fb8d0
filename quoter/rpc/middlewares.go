package rpc

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// zerologMiddleware attaches a request scoped logger to the context and logs
// each request once it is served. Requests to /server/ log at debug level.
func zerologMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := Logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		var event *zerolog.Event
		switch status := ww.Status(); {
		case status >= http.StatusInternalServerError:
			event = reqLog.Error()
		case strings.HasPrefix(r.URL.Path, "/server/"):
			event = reqLog.Debug()
		default:
			event = reqLog.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// zerologRecoverer turns a panic outside the connect handlers into a 500
func zerologRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rvr).
				Str("path", r.URL.Path).
				Msg("Recovered from panic")
			w.WriteHeader(http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// connect protocol headers a browser client sends and reads
var (
	connectRequestHeaders = []string{
		"Accept-Encoding",
		"Connect-Accept-Encoding",
		"Connect-Content-Encoding",
		"Connect-Protocol-Version",
		"Connect-Timeout-Ms",
		"Content-Encoding",
		"Content-Type",
	}
	connectResponseHeaders = []string{
		"Connect-Content-Encoding",
		"Content-Encoding",
	}
)

// newCORSHandler allows every origin when allowedOrigins is empty or "*".
// Credentials are only allowed for an explicit origin list.
func newCORSHandler(allowedOrigins []string, next http.Handler) http.Handler {
	wildcard := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	if wildcard {
		allowedOrigins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   connectRequestHeaders,
		ExposedHeaders:   connectResponseHeaders,
		AllowCredentials: !wildcard,
		MaxAge:           int((2 * time.Hour).Seconds()),
	}).Handler(next)
}

// loggingInterceptor logs each procedure call on the request logger. Bad
// input and unknown pairs are the caller's fault and log at warn level.
func loggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			reqLog := zerolog.Ctx(ctx)
			if reqLog.GetLevel() == zerolog.Disabled {
				reqLog = &Logger
			}

			var event *zerolog.Event
			switch code := connect.CodeOf(err); {
			case err == nil:
				event = reqLog.Info()
			case code == connect.CodeInvalidArgument || code == connect.CodeNotFound:
				event = reqLog.Warn().Err(err)
			default:
				event = reqLog.Error().Err(err)
			}
			event.
				Str("procedure", req.Spec().Procedure).
				Str("protocol", req.Peer().Protocol).
				Dur("duration", time.Since(start)).
				Msg("rpc")

			return resp, err
		}
	}
}

// noCacheInterceptor keeps quotes out of browser and CDN caches; pair fees
// and swap quotes change with the pair state.
func noCacheInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			if err == nil && resp != nil {
				resp.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			}
			return resp, err
		}
	}
}
