package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timemore/bucket/errors"
	dataerrs "github.com/timemore/bucket/errors/data"
)

func TestResponseStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{errors.ArgMsg("path", "empty"), http.StatusBadRequest},
		{errors.Wrap("upload", errors.ArgMsg("source", "empty")), http.StatusBadRequest},
		{dataerrs.Malformed(errors.Msg("no file")), http.StatusBadRequest},
		{errors.NewConfigurationMsg("connection `x` is not configured"), http.StatusNotFound},
		{errors.Wrap("driver local", errors.ErrUnimplemented), http.StatusNotImplemented},
		{errors.Msg("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		code, _ := Response(c.err)
		assert.Equal(t, c.want, code, "%v", c.err)
	}
}

func TestResponseBody(t *testing.T) {
	_, body := Response(errors.ArgMsg("path", "empty"))
	require.NotNil(t, body)
	assert.Equal(t, "invalid_argument", body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "path", body.Fields[0].Field)
	assert.Equal(t, "empty", body.Fields[0].Description)

	_, body = Response(nil)
	assert.Nil(t, body)
}
