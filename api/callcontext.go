// Package api holds what every API surface of the bucket service shares.
package api

import (
	"context"

	"github.com/google/uuid"
)

// A RequestID identifies one call across the logs of the service. Callers
// may provide their own through the X-Request-ID header.
type RequestID = uuid.UUID

// CallContext holds information obtained from the request. This information
// are generally obtained from the request's metadata (e.g., HTTP request
// header).
type CallContext interface {
	context.Context

	// MethodName returns the name of the method this call is directed to.
	//
	// For HTTP, this method returns the value as "<HTTP_METHOD> <URL>", e.g.,
	// POST /buckets/assets/files
	//
	MethodName() string

	// RequestID returns the request identifier. It is never nil.
	RequestID() *RequestID

	// RemoteAddress returns the IP address where this call was initiated
	// from. This method might return empty string if it's unable to resolve
	// the address.
	RemoteAddress() string
}

type CallInfo struct {
	MethodName string
	RequestID  *RequestID
}

type CallRemoteInfo struct {
	Address string
}

// NewCallContext attaches call and remote to ctx. A missing request ID is
// generated.
func NewCallContext(ctx context.Context, call CallInfo, remote CallRemoteInfo) CallContext {
	if call.RequestID == nil {
		id := uuid.New()
		call.RequestID = &id
	}
	return &callContext{Context: ctx, call: call, remote: remote}
}

type callContext struct {
	context.Context
	call   CallInfo
	remote CallRemoteInfo
}

var _ CallContext = &callContext{}

func (c *callContext) MethodName() string    { return c.call.MethodName }
func (c *callContext) RequestID() *RequestID { return c.call.RequestID }
func (c *callContext) RemoteAddress() string { return c.remote.Address }
