package bucket

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
	"github.com/timemore/bucket/metrics"
)

// MetadataTimeLayout is the layout of the created_at and updated_at
// metadata written with every object.
const MetadataTimeLayout = "2006-01-02 15:04:05"

const (
	opCreateFile   = "create_file"
	opUpload       = "upload"
	opUploadStream = "upload_stream"
	opTemporaryURL = "temporary_url"
)

// Handle is a connected bucket. It owns its filesystem adapter and keeps
// the messages of failed writes, keyed by the path the caller passed in.
type Handle struct {
	manager *Manager
	config  ConnectionConfig
	adapter filesystem.Adapter

	errMu sync.Mutex
	errs  map[string]string

	now   func() time.Time
	token func() string
}

func newHandle(m *Manager, cfg ConnectionConfig, fs filesystem.Adapter) *Handle {
	return &Handle{
		manager: m,
		config:  cfg,
		adapter: fs,
		errs:    map[string]string{},
		now:     time.Now,
		token:   func() string { return xid.New().String() },
	}
}

func (h *Handle) Config() ConnectionConfig { return h.config }

// Name returns the bucket name, which is also the handle's cache key.
func (h *Handle) Name() string { return h.config.BucketName }

func (h *Handle) Adapter() filesystem.Adapter { return h.adapter }

// Errors returns a copy of the recorded failures.
func (h *Handle) Errors() map[string]string {
	h.errMu.Lock()
	defer h.errMu.Unlock()

	errs := make(map[string]string, len(h.errs))
	for k, v := range h.errs {
		errs[k] = v
	}
	return errs
}

// URL returns the public URL of objectPath in this bucket.
func (h *Handle) URL(objectPath string) (string, bool) {
	return h.manager.URL(h.Name(), objectPath)
}

// TemporaryURL returns a presigned URL for objectPath valid until expiry.
func (h *Handle) TemporaryURL(ctx context.Context, objectPath string, expiry Expiry) (string, error) {
	objectPath = Normalize(objectPath)
	if objectPath == "" {
		return "", errors.ArgMsg("path", "empty")
	}
	if expiry == nil {
		return "", errors.ArgMsg("expiry", "empty")
	}

	now := h.now()
	expires, err := expiry.Resolve(now)
	if err != nil {
		return "", err
	}
	if !expires.After(now) {
		return "", errors.ArgMsg("expiry", "not in the future")
	}

	start := time.Now()
	u, err := h.adapter.TemporaryURL(ctx, objectPath, expires)
	metrics.OperationDuration.WithLabelValues(opTemporaryURL).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OperationsTotal.WithLabelValues(opTemporaryURL, metrics.StatusError).Inc()
		return "", err
	}
	metrics.OperationsTotal.WithLabelValues(opTemporaryURL, metrics.StatusSuccess).Inc()
	return u, nil
}

// CreateFile writes content to filePath. With opts.Name set, filePath is
// the target directory and the object is stored there under opts.Name.
func (h *Handle) CreateFile(ctx context.Context, filePath string, content []byte, opts UploadOptions) (Result, error) {
	dir, fileName := Split(filePath)
	if opts.Name != "" {
		dir, fileName = Normalize(filePath), opts.Name
	}
	if fileName == "" {
		return Result{}, errors.ArgMsg("path", "empty")
	}

	return h.store(ctx, opCreateFile, filePath, dir, fileName, opts,
		func(ctx context.Context, destination string, wopts filesystem.WriteOptions) error {
			wopts.ContentType = filesystem.DetectContentType(content)
			return h.adapter.Write(ctx, destination, content, wopts)
		})
}

// Upload copies the local file source into the directory destination.
// The object keeps the base name of source unless opts.Name is set.
func (h *Handle) Upload(ctx context.Context, source, destination string, opts UploadOptions) (Result, error) {
	if source == "" {
		return Result{}, errors.ArgMsg("source", "empty")
	}

	inf, err := os.Stat(source)
	if err != nil || inf.IsDir() {
		return h.fail(opUpload, source, ErrSourceNotFound,
			errors.Msg("File `"+source+"` does not exist")), nil
	}
	f, err := os.Open(source)
	if err != nil {
		return h.fail(opUpload, source, ErrSourceUnreadable,
			errors.Msg("Could not open file `"+source+"`")), nil
	}
	defer func() {
		_ = f.Close()
	}()

	fileName := opts.Name
	if fileName == "" {
		fileName = filepath.Base(source)
	}

	return h.store(ctx, opUpload, source, Normalize(destination), fileName, opts, h.streamWriter(f))
}

// UploadStream stores stream in the directory destination. The object is
// named after opts.Name, or the base of stream's Name() when it has one
// (e.g. *os.File). The stream is closed before UploadStream returns.
func (h *Handle) UploadStream(ctx context.Context, stream io.ReadCloser, destination string, opts UploadOptions) (Result, error) {
	if stream == nil {
		return Result{}, errors.ArgMsg("stream", "nil")
	}
	defer func() {
		_ = stream.Close()
	}()

	var key string
	if named, ok := stream.(interface{ Name() string }); ok {
		key = named.Name()
	}
	fileName := opts.Name
	if fileName == "" && key != "" {
		fileName = filepath.Base(key)
	}
	if key == "" {
		key = opts.Name
	}
	if fileName == "" {
		return Result{}, errors.ArgMsg("opts.Name", "empty")
	}

	return h.store(ctx, opUploadStream, key, Normalize(destination), fileName, opts, h.streamWriter(stream))
}

func (h *Handle) streamWriter(r io.Reader) writeFunc {
	return func(ctx context.Context, destination string, wopts filesystem.WriteOptions) error {
		contentType, body, err := filesystem.DetectStreamContentType(r)
		if err != nil {
			return errors.Wrap("unable to read source", err)
		}
		wopts.ContentType = contentType
		return h.adapter.WriteStream(ctx, destination, body, wopts)
	}
}

type writeFunc func(ctx context.Context, destination string, opts filesystem.WriteOptions) error

// store resolves the destination of fileName in dir, applies the
// collision policy and writes. Only a failure to create dir is returned
// as an error; the other failures are recorded under key.
func (h *Handle) store(
	ctx context.Context,
	op, key, dir, fileName string,
	opts UploadOptions,
	write writeFunc,
) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	dirExists, err := h.adapter.DirectoryExists(ctx, dir)
	if err != nil {
		return h.fail(op, key, ErrWriteFailed, err), nil
	}
	if !dirExists {
		if err = h.adapter.CreateDirectory(ctx, dir); err != nil {
			metrics.OperationsTotal.WithLabelValues(op, metrics.StatusError).Inc()
			return Result{}, errors.Wrap("create directory "+dir, err)
		}
	}

	destination := Join(dir, fileName)
	fileExists, err := h.adapter.FileExists(ctx, destination)
	if err != nil {
		return h.fail(op, key, ErrWriteFailed, err), nil
	}
	if fileExists {
		switch {
		case opts.Overwrite:
			if err = h.adapter.Delete(ctx, destination); err != nil {
				return h.fail(op, key, ErrWriteFailed, err), nil
			}
		case opts.Rename:
			destDir, base := Split(destination)
			destination = Join(destDir, strconv.FormatInt(h.now().Unix(), 10)+"_"+h.token()+"_"+base)
		default:
			return h.fail(op, key, ErrDestinationExists,
				errors.Msg("File `"+destination+"` already exists")), nil
		}
	}

	stamp := h.now().Format(MetadataTimeLayout)
	wopts := filesystem.WriteOptions{
		Visibility: filesystem.VisibilityPublic,
		Metadata: map[string]string{
			"created_at": stamp,
			"updated_at": stamp,
		},
	}
	if err = write(ctx, destination, wopts); err != nil {
		return h.fail(op, key, ErrWriteFailed, err), nil
	}

	metrics.OperationsTotal.WithLabelValues(op, metrics.StatusSuccess).Inc()
	log.Debug().Str("bucket", h.Name()).Str("path", destination).Msg(op)

	objectURL, ok := h.URL(destination)
	if !ok {
		metrics.URLResolutionFailures.Inc()
	}
	return Result{Stored: true, Path: destination, URL: objectURL}, nil
}

func (h *Handle) fail(op, key string, kind, err error) Result {
	opErr := &OperationError{Key: key, Kind: kind, Err: err}

	h.errMu.Lock()
	h.errs[key] = opErr.Error()
	h.errMu.Unlock()

	status := metrics.StatusError
	if kind == ErrDestinationExists {
		status = metrics.StatusConflict
	}
	metrics.OperationsTotal.WithLabelValues(op, status).Inc()
	log.Warn().Err(err).Str("bucket", h.Name()).Str("key", key).Msg(op)

	return Result{Err: opErr}
}
