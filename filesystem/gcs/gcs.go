package gcs

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const ServiceName = "gcs"

const endpointDefault = "https://storage.googleapis.com"

func init() {
	filesystem.RegisterModule(
		ServiceName,
		filesystem.Module{
			NewAdapter: NewAdapter,
		})
}

// NewAdapter creates a Google Cloud Storage adapter. Credentials come from
// config.CredentialsFile; without one the client runs unauthenticated,
// which is only useful against public buckets and emulators.
func NewAdapter(config filesystem.Config) (filesystem.Adapter, error) {
	if config.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}

	var opts []option.ClientOption
	if config.CredentialsFile != "" {
		isExists, err := isAvailableCredentials(config.CredentialsFile)
		if err != nil {
			return nil, errors.Wrap("credentialsFile", err)
		}
		if !isExists {
			return nil, errors.ArgMsg("config.CredentialsFile", "not a file")
		}
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}

	endpoint := endpointDefault
	if config.Endpoint != "" {
		endpoint = strings.TrimSuffix(config.Endpoint, "/")
		opts = append(opts, option.WithEndpoint(endpoint+"/storage/v1/"))
	}
	endpointURL, err := url.Parse(endpoint)
	if err != nil || endpointURL.Host == "" {
		return nil, errors.ArgMsg("config.Endpoint", "invalid URL")
	}

	client, err := gcs.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap("gcs client initialization", err)
	}

	return &Adapter{
		bucketName: config.BucketName,
		endpoint:   endpointURL,
		bucket:     client.Bucket(config.BucketName),
	}, nil
}

type Adapter struct {
	bucketName string
	endpoint   *url.URL
	bucket     *gcs.BucketHandle
}

var (
	_ filesystem.Adapter     = &Adapter{}
	_ filesystem.URLResolver = &Adapter{}
)

func (a *Adapter) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	if dirPath == "" {
		return true, nil
	}
	it := a.bucket.Objects(ctx, &gcs.Query{Prefix: filesystem.DirectoryMarker(dirPath)})
	_, err := it.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap("unable to check existence for: "+dirPath, err)
	}
	return true, nil
}

func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if dirPath == "" {
		return nil
	}
	err := a.write(ctx, filesystem.DirectoryMarker(dirPath), bytes.NewReader(nil), filesystem.WriteOptions{})
	if err != nil {
		return errors.Wrap("unable to create directory at location: "+dirPath, err)
	}
	return nil
}

func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := a.bucket.Object(filePath).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return false, errors.Wrap("unable to check existence for: "+filePath, err)
}

func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	err := a.bucket.Object(filePath).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return errors.Wrap("unable to delete file located at: "+filePath, err)
	}
	return nil
}

func (a *Adapter) Write(ctx context.Context, filePath string, content []byte, opts filesystem.WriteOptions) error {
	return a.WriteStream(ctx, filePath, bytes.NewReader(content), opts)
}

func (a *Adapter) WriteStream(ctx context.Context, filePath string, content io.Reader, opts filesystem.WriteOptions) error {
	if err := a.write(ctx, filePath, content, opts); err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) write(ctx context.Context, objectKey string, content io.Reader, opts filesystem.WriteOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wc := a.bucket.Object(objectKey).NewWriter(ctx)
	wc.ContentType = opts.ContentType
	wc.Metadata = opts.Metadata
	if opts.Visibility == filesystem.VisibilityPublic {
		wc.PredefinedACL = "publicRead"
	}
	if _, err := io.Copy(wc, content); err != nil {
		return errors.Wrap("copy file io.Copy", err)
	}
	if err := wc.Close(); err != nil {
		return errors.Wrap("writer.Close", err)
	}
	return nil
}

func (a *Adapter) TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error) {
	signed, err := a.bucket.SignedURL(filePath, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: expires,
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", errors.Wrap("unable to generate temporary url for file at location: "+filePath, err)
	}
	return signed, nil
}

// ObjectURL returns the path-style public URL. Cloud Storage serves every
// bucket under the shared host.
func (a *Adapter) ObjectURL(filePath string) (string, error) {
	u := *a.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + a.bucketName + "/" + filePath
	return u.String(), nil
}

func isAvailableCredentials(credentialsFile string) (bool, error) {
	inf, err := os.Stat(credentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, errors.ArgMsg("config.CredentialsFile", "notExists")
		}

		return false, errors.Wrap("credential file not valid", err)
	}

	return !inf.IsDir(), nil
}
