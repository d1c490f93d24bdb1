package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/ctxutil"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// healthRoutes are hit by load balancers and scrapers every few seconds.
var healthRoutes = map[string]bool{"/status": true, "/metrics": true}

// AttachTraceContext stamps every request with a request id and a trace id
// and echoes both back as response headers. An active otel span wins over a
// client supplied X-Trace-Id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := &ctxutil.TraceData{
			RequestID: clientRequestID(c.GetHeader(HeaderRequestID)),
			TraceID:   traceIDFor(c.Request.Context(), c.GetHeader(HeaderTraceID)),
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		h := c.Writer.Header()
		h.Set(HeaderRequestID, td.RequestID)
		h.Set(HeaderTraceID, td.TraceID)
		c.Next()
	}
}

// clientRequestID keeps a caller's id only when it is short printable ASCII.
func clientRequestID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	for _, r := range id {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return uuid.NewString()
		}
	}
	return id
}

func traceIDFor(ctx context.Context, header string) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id := strings.TrimSpace(header); id != "" && len(id) <= maxRequestIDLen {
		return id
	}
	return uuid.NewString()
}

// RequestLogger writes one line per request. Health-check traffic is logged at debug
// unless it fails.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := routeOf(c)
		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(began).Milliseconds(),
			"bytes", max(c.Writer.Size(), 0),
			"client_ip", c.ClientIP(),
		}
		ctx := c.Request.Context()
		if td := ctxutil.GetTraceData(ctx); td != nil {
			fields = append(fields, "request_id", td.RequestID, "trace_id", td.TraceID)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			fields = append(fields, "user_id", rd.UserID.String(), "role", rd.Role)
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, "error", errs.Last().Error())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case healthRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics records request count, latency and in-flight gauge per route
// template. Unmatched paths share one label to keep cardinality bounded.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.ApiInflightInc()
		began := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, routeOf(c), strconv.Itoa(c.Writer.Status()), time.Since(began))
		}()
		c.Next()
	}
}

// RequestTimeout puts a deadline on the request context so store, storage and
// AI calls made by handlers give up together. d <= 0 disables it.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
