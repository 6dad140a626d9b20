package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thaijunny/fashion-be/internal/logging"
)

const (
	HeaderRequestID = "X-Request-Id"
	bodyLogLimit    = 8 * 1024
	redacted        = "***redacted***"
)

// Keys whose values never reach the log, matched case-insensitively.
var secretKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"access_token":  {},
	"secret":        {},
	"credential":    {},
}

type bodyLogWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	if remain := bodyLogLimit - w.buf.Len(); remain > 0 {
		if len(b) > remain {
			w.buf.Write(b[:remain])
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// redactJSON masks secret fields at any depth. Non-JSON input is returned as is.
func redactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	out, err := json.Marshal(scrub(doc))
	if err != nil {
		return raw
	}
	return out
}

func scrub(x any) any {
	switch v := x.(type) {
	case map[string]any:
		for k, val := range v {
			if _, secret := secretKeys[strings.ToLower(k)]; secret {
				v[k] = redacted
				continue
			}
			v[k] = scrub(val)
		}
	case []any:
		for i := range v {
			v[i] = scrub(v[i])
		}
	}
	return x
}

// Logging attaches a request-scoped logger (request id, method, route,
// client ip) to the gin and request contexts and logs one line per request
// with redacted JSON bodies.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(HeaderRequestID, reqID)

		l := base.With(
			"req_id", reqID,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"remote", c.ClientIP(),
		)
		logging.With(c, l)

		var reqBody []byte
		if strings.Contains(c.GetHeader("Content-Type"), "application/json") && c.Request.Body != nil {
			full, err := io.ReadAll(c.Request.Body)
			_ = c.Request.Body.Close()
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(full))
				reqBody = capped(redactJSON(full))
			}
		}

		blw := &bodyLogWriter{ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"dur_ms", time.Since(start).Milliseconds(),
			"resp_bytes", c.Writer.Size(),
		}
		if len(reqBody) > 0 {
			attrs = append(attrs, "req_body", string(reqBody))
		}
		if strings.Contains(c.Writer.Header().Get("Content-Type"), "application/json") && blw.buf.Len() > 0 {
			attrs = append(attrs, "resp_body", string(capped(redactJSON(blw.buf.Bytes()))))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}

func capped(b []byte) []byte {
	if len(b) <= bodyLogLimit {
		return b
	}
	return append(b[:bodyLogLimit:bodyLogLimit], "...truncated..."...)
}
