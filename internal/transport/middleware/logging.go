package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"
)

const filtered = "[FILTERED]"

// sensitiveFields are matched as substrings of lower-cased header names and
// JSON keys.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"credential",
	"session",
}

// maxLoggedBody caps how much of a body is buffered for logging.
const maxLoggedBody = 64 << 10

// LoggingMiddleware logs every request and its response with secrets masked.
func LoggingMiddleware(lg *slog.Logger) func(next http.Handler) http.Handler {
	if lg == nil {
		lg = logger.L()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := lg.With("trace_id", w.Header().Get(TraceHeader))

			body := readBody(r)
			lg.InfoContext(r.Context(), "incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", maskHeaders(r.Header),
				"body", maskBody(body),
			)

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			lg.Log(r.Context(), level, "response",
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"body", maskBody(rec.body.Bytes()),
			)
		})
	}
}

func readBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	data, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data
}

type recorder struct {
	http.ResponseWriter
	status int
	size   int
	body   bytes.Buffer
}

func (rw *recorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		rw.body.Write(b[:min(len(b), room)])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(name, field) {
			return true
		}
	}
	return false
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = filtered
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		if isSensitive(string(body)) {
			return "[FILTERED - contains sensitive data]"
		}
		return string(body)
	}

	out, err := json.Marshal(maskJSON(data))
	if err != nil {
		return "[ERROR - failed to marshal filtered body]"
	}
	return string(out)
}

func maskJSON(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if isSensitive(key) {
				out[key] = filtered
				continue
			}
			out[key] = maskJSON(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = maskJSON(item)
		}
		return out
	default:
		return v
	}
}
