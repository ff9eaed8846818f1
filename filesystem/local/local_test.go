package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
)

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fs, err := NewAdapter(filesystem.Config{Endpoint: root, BucketName: "assets"})
	require.NoError(t, err)

	exists, err := fs.DirectoryExists(ctx, "images")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.CreateDirectory(ctx, "images"))
	exists, err = fs.DirectoryExists(ctx, "images")
	require.NoError(t, err)
	assert.True(t, exists)

	opts := filesystem.WriteOptions{Visibility: filesystem.VisibilityPublic}
	require.NoError(t, fs.WriteStream(ctx, "images/photo.jpg", strings.NewReader("jpeg"), opts))
	require.NoError(t, fs.Write(ctx, "docs/readme.txt", []byte("hello"), opts))

	data, err := os.ReadFile(filepath.Join(root, "assets", "images", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	exists, err = fs.FileExists(ctx, "docs/readme.txt")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = fs.FileExists(ctx, "docs")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Delete(ctx, "docs/readme.txt"))
	require.NoError(t, fs.Delete(ctx, "docs/readme.txt"))
	exists, _ = fs.FileExists(ctx, "docs/readme.txt")
	assert.False(t, exists)
}

func TestAdapterURLs(t *testing.T) {
	root := t.TempDir()
	fs, err := NewAdapter(filesystem.Config{Endpoint: root, BucketName: "assets"})
	require.NoError(t, err)

	u, err := fs.(filesystem.URLResolver).ObjectURL("images/photo.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"))
	assert.True(t, strings.HasSuffix(u, "/assets/images/photo.jpg"))

	_, err = fs.TemporaryURL(context.Background(), "images/photo.jpg", time.Now().Add(time.Hour))
	assert.True(t, errors.Is(err, errors.ErrUnimplemented))
}

func TestNewAdapterValidation(t *testing.T) {
	_, err := NewAdapter(filesystem.Config{BucketName: "assets"})
	assert.Error(t, err)
	_, err = NewAdapter(filesystem.Config{Endpoint: t.TempDir()})
	assert.Error(t, err)
}

type closeFailWriter struct {
	bytes.Buffer
	closeErr error
	closed   bool
}

func (w *closeFailWriter) Close() error {
	w.closed = true
	return w.closeErr
}

func TestCopyAndClose(t *testing.T) {
	w := &closeFailWriter{closeErr: io.ErrShortWrite}
	err := copyAndClose(w, strings.NewReader("body"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.True(t, w.closed)
	assert.Equal(t, "body", w.String())

	w = &closeFailWriter{closeErr: io.ErrShortWrite}
	err = copyAndClose(w, iotest.ErrReader(io.ErrUnexpectedEOF))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, w.closed)

	w = &closeFailWriter{}
	assert.NoError(t, copyAndClose(w, strings.NewReader("body")))
}
