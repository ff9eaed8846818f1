package rest

import (
	"bytes"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/timemore/bucket/logger"
)

var log = logger.NewPkgLogger()

// LogFilter writes one log entry per request with its status, latency and
// response size.
type LogFilter struct {
	clock timer
}

type timer interface {
	Now() time.Time
	Since(time.Time) time.Duration
}

type realClock struct{}

func (rc *realClock) Now() time.Time {
	return time.Now()
}

func (rc *realClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func NewRequestLoggingFilter() *LogFilter {
	return &LogFilter{
		clock: &realClock{},
	}
}

func (lf *LogFilter) Filter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	startTime := lf.clock.Now().UTC()
	c := NewResponseCapture(resp.ResponseWriter)
	resp.ResponseWriter = c
	chain.ProcessFilter(req, resp)
	latency := lf.clock.Since(startTime)

	status := c.StatusCode()
	if status == 0 {
		status = http.StatusOK
	}
	ev := log.WithRequest(req.Request).Info()
	if status >= http.StatusInternalServerError {
		ev = log.WithRequest(req.Request).Error()
	}
	ev.Int("status", status).
		Dur("latency", latency).
		Int("size", c.Len()).
		Str("request_id", req.Request.Header.Get(RequestIDHeader)).
		Msg("request")
}

// ResponseCapture records the status code and the body of a response
// while passing both through.
type ResponseCapture struct {
	http.ResponseWriter
	wroteHeader bool
	status      int
	body        *bytes.Buffer
}

func NewResponseCapture(w http.ResponseWriter) *ResponseCapture {
	return &ResponseCapture{
		ResponseWriter: w,
		wroteHeader:    false,
		body:           new(bytes.Buffer),
	}
}

func (c *ResponseCapture) Header() http.Header {
	return c.ResponseWriter.Header()
}

func (c *ResponseCapture) Write(data []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	c.body.Write(data)
	return c.ResponseWriter.Write(data)
}

func (c *ResponseCapture) WriteHeader(statusCode int) {
	c.status = statusCode
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *ResponseCapture) Bytes() []byte {
	return c.body.Bytes()
}

func (c *ResponseCapture) Len() int {
	return c.body.Len()
}

func (c *ResponseCapture) StatusCode() int {
	return c.status
}
