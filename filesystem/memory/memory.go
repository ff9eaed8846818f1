// Package memory provides an in-process driver. Buckets are shared by
// endpoint and bucket name for the lifetime of the process, so separate
// adapters on the same bucket see the same objects, like they would on a
// real object store.
package memory

import (
	"context"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
)

const ServiceName = "memory"

const endpointDefault = "http://memory.local"

func init() {
	filesystem.RegisterModule(
		ServiceName,
		filesystem.Module{
			NewAdapter: NewAdapter,
		})
}

type Object struct {
	Content []byte
	Options filesystem.WriteOptions
}

// Bucket is the shared state behind every adapter bound to the same
// endpoint and bucket name.
type Bucket struct {
	mu       sync.RWMutex
	objects  map[string]Object
	writeErr error
	opErrs   map[string]error
}

// Adapter calls that can be made to fail with FailCalls.
const (
	OpDirectoryExists = "directory_exists"
	OpFileExists      = "file_exists"
	OpDelete          = "delete"
)

var (
	buckets   = map[string]*Bucket{}
	bucketsMu sync.Mutex
)

// Lookup returns the bucket state, creating it when needed.
func Lookup(endpoint, bucketName string) *Bucket {
	if endpoint == "" {
		endpoint = endpointDefault
	}
	key := endpoint + "|" + bucketName

	bucketsMu.Lock()
	defer bucketsMu.Unlock()

	b := buckets[key]
	if b == nil {
		b = &Bucket{objects: map[string]Object{}, opErrs: map[string]error{}}
		buckets[key] = b
	}
	return b
}

// Reset drops every bucket.
func Reset() {
	bucketsMu.Lock()
	buckets = map[string]*Bucket{}
	bucketsMu.Unlock()
}

func (b *Bucket) Object(objectPath string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[objectPath]
	return obj, ok
}

// Files lists the stored keys, directory markers excluded.
func (b *Bucket) Files() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for k := range b.objects {
		if !strings.HasSuffix(k, "/") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// FailWrites makes every following write fail with err. A nil err
// restores normal operation.
func (b *Bucket) FailWrites(err error) {
	b.mu.Lock()
	b.writeErr = err
	b.mu.Unlock()
}

// FailCalls makes every following call of op fail with err. A nil err
// restores normal operation.
func (b *Bucket) FailCalls(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.opErrs, op)
		return
	}
	b.opErrs[op] = err
}

// callErr must be called with mu held.
func (b *Bucket) callErr(op, objectPath string) error {
	if err := b.opErrs[op]; err != nil {
		return errors.Wrap(op+" "+objectPath, err)
	}
	return nil
}

func NewAdapter(config filesystem.Config) (filesystem.Adapter, error) {
	if config.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = endpointDefault
	}
	endpointURL, err := url.Parse(endpoint)
	if err != nil || endpointURL.Host == "" {
		return nil, errors.ArgMsg("config.Endpoint", "invalid URL")
	}

	return &Adapter{
		endpoint:   endpointURL,
		pathStyle:  config.UsePathStyleEndpoint,
		bucketName: config.BucketName,
		bucket:     Lookup(endpoint, config.BucketName),
	}, nil
}

type Adapter struct {
	endpoint   *url.URL
	pathStyle  bool
	bucketName string
	bucket     *Bucket
}

var (
	_ filesystem.Adapter     = &Adapter{}
	_ filesystem.URLResolver = &Adapter{}
)

func (a *Adapter) Bucket() *Bucket { return a.bucket }

func (a *Adapter) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	if dirPath == "" {
		return true, nil
	}
	prefix := filesystem.DirectoryMarker(dirPath)

	a.bucket.mu.RLock()
	defer a.bucket.mu.RUnlock()
	if err := a.bucket.callErr(OpDirectoryExists, dirPath); err != nil {
		return false, err
	}
	for k := range a.bucket.objects {
		if strings.HasPrefix(k, prefix) {
			return true, nil
		}
	}
	return false, nil
}

func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if dirPath == "" {
		return nil
	}
	a.bucket.mu.Lock()
	defer a.bucket.mu.Unlock()
	if a.bucket.writeErr != nil {
		return errors.Wrap("create directory", a.bucket.writeErr)
	}
	a.bucket.objects[filesystem.DirectoryMarker(dirPath)] = Object{}
	return nil
}

func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	if filePath == "" || strings.HasSuffix(filePath, "/") {
		return false, nil
	}
	a.bucket.mu.RLock()
	defer a.bucket.mu.RUnlock()
	if err := a.bucket.callErr(OpFileExists, filePath); err != nil {
		return false, err
	}
	_, ok := a.bucket.objects[filePath]
	return ok, nil
}

func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	a.bucket.mu.Lock()
	defer a.bucket.mu.Unlock()
	if err := a.bucket.callErr(OpDelete, filePath); err != nil {
		return err
	}
	delete(a.bucket.objects, filePath)
	return nil
}

func (a *Adapter) Write(ctx context.Context, filePath string, content []byte, opts filesystem.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.bucket.mu.Lock()
	defer a.bucket.mu.Unlock()
	if a.bucket.writeErr != nil {
		return errors.Wrap("unable to write file at location: "+filePath, a.bucket.writeErr)
	}

	stored := make([]byte, len(content))
	copy(stored, content)
	meta := map[string]string{}
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	opts.Metadata = meta
	a.bucket.objects[filePath] = Object{Content: stored, Options: opts}
	return nil
}

func (a *Adapter) WriteStream(ctx context.Context, filePath string, content io.Reader, opts filesystem.WriteOptions) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return errors.Wrap("read stream", err)
	}
	return a.Write(ctx, filePath, data, opts)
}

func (a *Adapter) TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error) {
	objectURL, err := a.objectURL(filePath)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("X-Expires", strconv.FormatInt(expires.Unix(), 10))
	objectURL.RawQuery = q.Encode()
	return objectURL.String(), nil
}

func (a *Adapter) ObjectURL(filePath string) (string, error) {
	objectURL, err := a.objectURL(filePath)
	if err != nil {
		return "", err
	}
	return objectURL.String(), nil
}

func (a *Adapter) objectURL(filePath string) (*url.URL, error) {
	if filePath == "" {
		return nil, errors.ArgMsg("filePath", "empty")
	}
	u := *a.endpoint
	basePath := strings.TrimSuffix(u.Path, "/")
	if a.pathStyle {
		u.Path = basePath + "/" + a.bucketName + "/" + filePath
	} else {
		u.Host = a.bucketName + "." + u.Host
		u.Path = basePath + "/" + filePath
	}
	return &u, nil
}
