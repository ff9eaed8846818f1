package local

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
)

const ServiceName = "local"

func init() {
	filesystem.RegisterModule(
		ServiceName,
		filesystem.Module{
			NewAdapter: NewAdapter,
		})
}

// NewAdapter maps a bucket onto <Endpoint>/<BucketName> on the local disk.
// Nothing is created until the first write.
func NewAdapter(config filesystem.Config) (filesystem.Adapter, error) {
	if config.Endpoint == "" {
		return nil, errors.ArgMsg("config.Endpoint", "empty")
	}
	if config.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}

	root, err := filepath.Abs(filepath.Join(config.Endpoint, config.BucketName))
	if err != nil {
		return nil, errors.ArgWrap("config.Endpoint", "resolve", err)
	}

	return &Adapter{
		directoryPath: root,
	}, nil
}

type Adapter struct {
	directoryPath string
}

var (
	_ filesystem.Adapter     = &Adapter{}
	_ filesystem.URLResolver = &Adapter{}
)

func (a *Adapter) location(objectPath string) string {
	return filepath.Join(a.directoryPath, filepath.FromSlash(objectPath))
}

func (a *Adapter) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	inf, err := os.Stat(a.location(dirPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrap("unable to check existence for: "+dirPath, err)
	}
	return inf.IsDir(), nil
}

func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if err := os.MkdirAll(a.location(dirPath), 0755); err != nil {
		return errors.Wrap("unable to create directory at location: "+dirPath, err)
	}
	return nil
}

func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	inf, err := os.Stat(a.location(filePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrap("unable to check existence for: "+filePath, err)
	}
	return !inf.IsDir(), nil
}

func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	err := os.Remove(a.location(filePath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap("unable to delete file located at: "+filePath, err)
	}
	return nil
}

func (a *Adapter) Write(ctx context.Context, filePath string, content []byte, opts filesystem.WriteOptions) error {
	target := a.location(filePath)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	if err := os.WriteFile(target, content, fileMode(opts.Visibility)); err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) WriteStream(ctx context.Context, filePath string, content io.Reader, opts filesystem.WriteOptions) error {
	target := a.location(filePath)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	targetFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(opts.Visibility))
	if err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	if err = copyAndClose(targetFile, content); err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

// copyAndClose copies content into w and closes it. A failing Close is
// reported when the copy itself succeeded.
func copyAndClose(w io.WriteCloser, content io.Reader) error {
	_, err := io.Copy(w, content)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

// TemporaryURL is not supported; local files have no signing authority.
func (a *Adapter) TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error) {
	return "", errors.Wrap("unable to generate temporary url for file at location: "+filePath, errors.ErrUnimplemented)
}

func (a *Adapter) ObjectURL(filePath string) (string, error) {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(a.location(filePath))}
	return u.String(), nil
}

func fileMode(visibility filesystem.Visibility) os.FileMode {
	if visibility == filesystem.VisibilityPrivate {
		return 0600
	}
	return 0644
}
