package rest

import (
	"io"
	"net/http"
	"runtime"
)

// Recover answers requests whose handler panicked. Install it with
// restful.Container.RecoverHandler.
type Recover struct {
	PrintStack bool
	StackSize  int
}

func NewRecover() *Recover {
	return &Recover{
		PrintStack: true,
		StackSize:  4096,
	}
}

func (rec *Recover) RecoverOnPanic(panicReason any, httpWriter http.ResponseWriter) {
	ev := log.Error().Interface("panic", panicReason)
	if rec.PrintStack {
		stack := make([]byte, rec.StackSize)
		stack = stack[:runtime.Stack(stack, false)]
		ev = ev.Bytes("stack", stack)
	}
	ev.Msg("handler panic")

	if panicReason == io.ErrUnexpectedEOF {
		RespondTo(httpWriter).Error(&ErrorResponse{
			Description: http.StatusText(http.StatusRequestEntityTooLarge),
		}, http.StatusRequestEntityTooLarge)
		return
	}

	RespondTo(httpWriter).Error(&ErrorResponse{
		Description: http.StatusText(http.StatusInternalServerError),
	}, http.StatusInternalServerError)
}
