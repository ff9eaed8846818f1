package bucket

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
	"github.com/timemore/bucket/filesystem/memory"
)

var testNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestHandle(t *testing.T) (*Handle, *memory.Bucket) {
	t.Helper()
	m := newTestManager(t)
	h := m.Get("assets")
	require.NotNil(t, h)
	h.now = func() time.Time { return testNow }
	return h, h.Adapter().(*memory.Adapter).Bucket()
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestUpload(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	source := writeTempFile(t, "photo.jpg", "\xFF\xD8\xFF\xE0jpeg")

	res, err := h.Upload(ctx, source, "images/", UploadOptions{})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "images/photo.jpg", res.Path)
	assert.Equal(t, "https://storage.example.com/images/photo.jpg", res.URL)
	assert.NotContains(t, res.URL, "assets.")

	obj, ok := b.Object("images/photo.jpg")
	require.True(t, ok)
	assert.Equal(t, "\xFF\xD8\xFF\xE0jpeg", string(obj.Content))
	assert.Equal(t, filesystem.VisibilityPublic, obj.Options.Visibility)
	assert.Equal(t, "image/jpeg", obj.Options.ContentType)
	assert.Equal(t, "2024-05-01 10:30:00", obj.Options.Metadata["created_at"])
	assert.Equal(t, "2024-05-01 10:30:00", obj.Options.Metadata["updated_at"])

	exists, err := h.Adapter().DirectoryExists(ctx, "images")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, h.Errors())
}

func TestUploadName(t *testing.T) {
	h, b := newTestHandle(t)
	source := writeTempFile(t, "photo.jpg", "jpeg")

	res, err := h.Upload(context.Background(), source, "/avatars//", UploadOptions{Name: "user-1.jpg"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "avatars/user-1.jpg", res.Path)
	assert.Equal(t, []string{"avatars/user-1.jpg"}, b.Files())
}

func TestUploadConflict(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	first := writeTempFile(t, "photo.jpg", "first")
	second := writeTempFile(t, "photo.jpg", "second")

	res, err := h.Upload(ctx, first, "images", UploadOptions{})
	require.NoError(t, err)
	require.True(t, res.OK())

	res, err = h.Upload(ctx, second, "images", UploadOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, ErrDestinationExists))
	assert.Equal(t, map[string]string{second: "File `images/photo.jpg` already exists"}, h.Errors())

	obj, _ := b.Object("images/photo.jpg")
	assert.Equal(t, "first", string(obj.Content))
}

func TestUploadOverwrite(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	first := writeTempFile(t, "photo.jpg", "first")
	second := writeTempFile(t, "photo.jpg", "second")

	_, err := h.Upload(ctx, first, "images", UploadOptions{})
	require.NoError(t, err)
	res, err := h.Upload(ctx, second, "images", UploadOptions{Overwrite: true, Rename: true})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "images/photo.jpg", res.Path)

	obj, _ := b.Object("images/photo.jpg")
	assert.Equal(t, "second", string(obj.Content))
	assert.Equal(t, []string{"images/photo.jpg"}, b.Files())
}

func TestUploadRename(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	source := writeTempFile(t, "photo.jpg", "jpeg")

	_, err := h.Upload(ctx, source, "images", UploadOptions{})
	require.NoError(t, err)
	res, err := h.Upload(ctx, source, "images", UploadOptions{Rename: true})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Regexp(t, `^images/\d+_[0-9a-v]+_photo\.jpg$`, res.Path)
	assert.True(t, strings.HasPrefix(res.Path, "images/1714"))
	assert.Len(t, b.Files(), 2)
}

func TestCreateFileRenameNestedName(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	h.token = func() string { return "tok" }

	res, err := h.CreateFile(ctx, "images", []byte("a"), UploadOptions{Name: "sub/x.jpg"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "images/sub/x.jpg", res.Path)

	res, err = h.CreateFile(ctx, "images", []byte("b"), UploadOptions{Name: "sub/x.jpg", Rename: true})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "images/sub/1714559400_tok_x.jpg", res.Path)
	assert.Equal(t, []string{"images/sub/1714559400_tok_x.jpg", "images/sub/x.jpg"}, b.Files())
}

func TestStoreCheckFailures(t *testing.T) {
	ctx := context.Background()
	callErr := errors.Msg("backend unavailable")

	for _, op := range []string{memory.OpDirectoryExists, memory.OpFileExists, memory.OpDelete} {
		t.Run(op, func(t *testing.T) {
			h, b := newTestHandle(t)
			_, err := h.CreateFile(ctx, "docs/readme.txt", []byte("first"), UploadOptions{})
			require.NoError(t, err)

			b.FailCalls(op, callErr)
			res, err := h.CreateFile(ctx, "docs/readme.txt", []byte("second"), UploadOptions{Overwrite: true})
			require.NoError(t, err)
			assert.False(t, res.OK())
			assert.True(t, errors.Is(res.Err, ErrWriteFailed))
			assert.True(t, errors.Is(res.Err, callErr))
			assert.Contains(t, h.Errors()["docs/readme.txt"], "backend unavailable")

			obj, _ := b.Object("docs/readme.txt")
			assert.Equal(t, "first", string(obj.Content))
		})
	}
}

func TestUploadSourceErrors(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)

	_, err := h.Upload(ctx, "", "images", UploadOptions{})
	assert.True(t, errors.IsArgument(err))

	missing := filepath.Join(t.TempDir(), "missing.jpg")
	res, err := h.Upload(ctx, missing, "images", UploadOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, ErrSourceNotFound))

	dir := t.TempDir()
	res, err = h.Upload(ctx, dir, "images", UploadOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())

	assert.Equal(t, map[string]string{
		missing: "File `" + missing + "` does not exist",
		dir:     "File `" + dir + "` does not exist",
	}, h.Errors())
	assert.Empty(t, b.Files())
}

func TestUploadWriteFailure(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)
	source := writeTempFile(t, "photo.jpg", "jpeg")

	require.NoError(t, h.Adapter().CreateDirectory(ctx, "images"))
	b.FailWrites(errors.Msg("quota exceeded"))

	res, err := h.Upload(ctx, source, "images", UploadOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, errors.Is(res.Err, ErrWriteFailed))
	assert.Contains(t, h.Errors()[source], "quota exceeded")
}

func TestCreateDirectoryFailure(t *testing.T) {
	h, b := newTestHandle(t)
	b.FailWrites(errors.Msg("read only"))

	res, err := h.CreateFile(context.Background(), "docs/readme.txt", []byte("hello"), UploadOptions{})
	require.Error(t, err)
	assert.False(t, res.OK())
	assert.Empty(t, h.Errors())
}

func TestCreateFile(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)

	res, err := h.CreateFile(ctx, "/docs/./readme.txt", []byte("hello"), UploadOptions{})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "docs/readme.txt", res.Path)
	assert.Equal(t, "https://storage.example.com/docs/readme.txt", res.URL)

	obj, ok := b.Object("docs/readme.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Content))
	assert.Equal(t, "text/plain; charset=utf-8", obj.Options.ContentType)

	res, err = h.CreateFile(ctx, "docs/readme.txt", []byte("again"), UploadOptions{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "File `docs/readme.txt` already exists", h.Errors()["docs/readme.txt"])

	res, err = h.CreateFile(ctx, "docs", []byte("named"), UploadOptions{Name: "notes.txt"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "docs/notes.txt", res.Path)
	obj, ok = b.Object("docs/notes.txt")
	require.True(t, ok)
	assert.Equal(t, "named", string(obj.Content))

	res, err = h.CreateFile(ctx, "/reports//2024/", []byte("q1"), UploadOptions{Name: "q1.txt"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "reports/2024/q1.txt", res.Path)

	_, err = h.CreateFile(ctx, "/", []byte("x"), UploadOptions{})
	assert.True(t, errors.IsArgument(err))
}

func TestCreateFileWithoutURL(t *testing.T) {
	m := newTestManager(t)
	h, err := m.Connect(ConnectionConfig{Driver: memory.ServiceName, BucketName: "unregistered"})
	require.NoError(t, err)

	res, err := h.CreateFile(context.Background(), "a.txt", []byte("a"), UploadOptions{})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "a.txt", res.Path)
	assert.Empty(t, res.URL)
}

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func TestUploadStream(t *testing.T) {
	ctx := context.Background()
	h, b := newTestHandle(t)

	stream := &trackingReader{Reader: strings.NewReader("%PDF-1.4 body")}
	res, err := h.UploadStream(ctx, stream, "reports", UploadOptions{Name: "q1.pdf"})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.True(t, stream.closed)
	assert.Equal(t, "reports/q1.pdf", res.Path)

	obj, _ := b.Object("reports/q1.pdf")
	assert.Equal(t, "application/pdf", obj.Options.ContentType)
	assert.Equal(t, "%PDF-1.4 body", string(obj.Content))

	stream = &trackingReader{Reader: strings.NewReader("x")}
	res, err = h.UploadStream(ctx, stream, "reports", UploadOptions{Name: "q1.pdf"})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.True(t, stream.closed)
	assert.Contains(t, h.Errors(), "q1.pdf")

	stream = &trackingReader{Reader: strings.NewReader("x")}
	_, err = h.UploadStream(ctx, stream, "reports", UploadOptions{})
	assert.True(t, errors.IsArgument(err))
	assert.True(t, stream.closed)

	_, err = h.UploadStream(ctx, nil, "reports", UploadOptions{})
	assert.True(t, errors.IsArgument(err))
}

func TestUploadStreamFile(t *testing.T) {
	h, b := newTestHandle(t)
	f, err := os.Open(writeTempFile(t, "notes.txt", "notes"))
	require.NoError(t, err)

	res, err := h.UploadStream(context.Background(), f, "", UploadOptions{})
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "notes.txt", res.Path)
	assert.Equal(t, []string{"notes.txt"}, b.Files())

	// Closed by UploadStream.
	assert.Error(t, f.Close())
}

func TestTemporaryURL(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHandle(t)

	u, err := h.TemporaryURL(ctx, "images/photo.jpg", ExpiresIn(time.Hour))
	require.NoError(t, err)
	assert.Contains(t, u, "images/photo.jpg")
	assert.Contains(t, u, "X-Expires=1714563000")

	u, err = h.TemporaryURL(ctx, "images/photo.jpg", ExpiresExpr("+1 hour"))
	require.NoError(t, err)
	assert.Contains(t, u, "X-Expires=1714563000")

	_, err = h.TemporaryURL(ctx, "images/photo.jpg", ExpiresAt(testNow.Add(-time.Minute)))
	assert.True(t, errors.IsArgument(err))
	_, err = h.TemporaryURL(ctx, "images/photo.jpg", ExpiresExpr("whenever"))
	assert.True(t, errors.IsArgument(err))
	_, err = h.TemporaryURL(ctx, "", ExpiresIn(time.Hour))
	assert.True(t, errors.IsArgument(err))
}

func TestHandleURL(t *testing.T) {
	h, _ := newTestHandle(t)
	u, ok := h.URL("images/photo.jpg")
	require.True(t, ok)
	assert.Equal(t, "https://storage.example.com/images/photo.jpg", u)
}
