package logger

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel(t *testing.T) {
	cfg := ConfigSkeleton()
	cfg.Level = "warn"
	l := New(cfg)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	cfg.Level = "nonsense"
	l = New(cfg)
	assert.Equal(t, zerolog.TraceLevel, l.GetLevel())
}

func TestNewRollingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cfg := ConfigSkeleton()
	cfg.Directory = dir
	cfg.Filename = ""

	w := newRollingFile(cfg)
	require.NotNil(t, w)
	assert.DirExists(t, dir)
}

func TestWithRequest(t *testing.T) {
	pkgLog := PkgLogger{New(ConfigSkeleton())}
	assert.NotNil(t, pkgLog.WithRequest(nil))

	req := httptest.NewRequest("GET", "/buckets/assets/url?path=a.txt", nil)
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	assert.NotNil(t, pkgLog.WithRequest(req))
}
