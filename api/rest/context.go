package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/timemore/bucket/api"
	"github.com/tomasen/realip"
)

const RequestIDHeader = "X-Request-ID"

type RequestContext interface {
	api.CallContext
	HTTPRequest() *http.Request
}

// NewRequestContext builds the call context of req. The request ID is
// taken from the X-Request-ID header when it holds a UUID.
func NewRequestContext(req *http.Request) RequestContext {
	var reqID *api.RequestID
	if id, err := uuid.Parse(req.Header.Get(RequestIDHeader)); err == nil {
		reqID = &id
	}

	remoteAddr := realip.FromRequest(req)
	if remoteAddr == "" {
		remoteAddr = req.RemoteAddr
	}

	return &requestContext{
		CallContext: api.NewCallContext(req.Context(),
			api.CallInfo{
				MethodName: req.Method + " " + req.URL.Path,
				RequestID:  reqID,
			},
			api.CallRemoteInfo{Address: remoteAddr}),
		req: req,
	}
}

type requestContext struct {
	api.CallContext
	req *http.Request
}

func (c *requestContext) HTTPRequest() *http.Request { return c.req }
