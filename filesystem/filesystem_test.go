package filesystem

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectStreamContentType(t *testing.T) {
	src := "%PDF-1.4\n" + strings.Repeat("x", 5000)
	ctype, r, err := DetectStreamContentType(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ctype)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, src, string(data))

	ctype, r, err = DetectStreamContentType(strings.NewReader("hi"))
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", ctype)
	data, _ = io.ReadAll(r)
	assert.Equal(t, "hi", string(data))
}

func TestDetectStreamExtension(t *testing.T) {
	ext, err := DetectStreamExtension(strings.NewReader("\x89PNG\r\n\x1a\n...."))
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	ext, err = DetectStreamExtension(strings.NewReader("plain words"))
	require.NoError(t, err)
	assert.Equal(t, ".txt", ext)
}

func TestContentName(t *testing.T) {
	a, err := ContentName(strings.NewReader("hello"), "")
	require.NoError(t, err)
	b, err := ContentName(strings.NewReader("hello"), "")
	require.NoError(t, err)
	c, err := ContentName(strings.NewReader("hello!"), "")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasSuffix(a, "N5"))
}

func TestNewAdapterUnknownDriver(t *testing.T) {
	_, err := NewAdapter("", Config{})
	assert.Error(t, err)
	_, err = NewAdapter("does-not-exist", Config{BucketName: "b"})
	assert.Error(t, err)
}

func TestDirectoryMarker(t *testing.T) {
	assert.Equal(t, "", DirectoryMarker(""))
	assert.Equal(t, "images/", DirectoryMarker("images"))
}
