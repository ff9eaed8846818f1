package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
)

const ServiceName = "minio"

func init() {
	filesystem.RegisterModule(
		ServiceName,
		filesystem.Module{
			NewAdapter: NewAdapter,
		})
}

// NewAdapter creates a minio-go backed adapter. The endpoint may be given
// with a scheme; "https" turns TLS on.
func NewAdapter(config filesystem.Config) (filesystem.Adapter, error) {
	if config.Endpoint == "" {
		return nil, errors.ArgMsg("config.Endpoint", "empty")
	}
	if config.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}

	host, secure, err := splitEndpoint(config.Endpoint)
	if err != nil {
		return nil, errors.ArgWrap("config.Endpoint", "invalid", err)
	}

	lookup := minio.BucketLookupAuto
	if config.UsePathStyleEndpoint {
		lookup = minio.BucketLookupPath
	}

	// minio discovers the bucket location itself when no region is given
	region := config.Region
	if region == "auto" {
		region = ""
	}

	minioClient, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.Wrap("minio client initialization", err)
	}

	return &Adapter{
		bucketName:  config.BucketName,
		pathStyle:   config.UsePathStyleEndpoint,
		minioClient: minioClient,
	}, nil
}

func splitEndpoint(endpoint string) (host string, secure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, errors.Msg("missing host")
	}
	return u.Host, u.Scheme == "https", nil
}

type Adapter struct {
	bucketName  string
	pathStyle   bool
	minioClient *minio.Client
}

var (
	_ filesystem.Adapter     = &Adapter{}
	_ filesystem.URLResolver = &Adapter{}
)

func (a *Adapter) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	if dirPath == "" {
		return true, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range a.minioClient.ListObjects(ctx, a.bucketName, minio.ListObjectsOptions{
		Prefix:  filesystem.DirectoryMarker(dirPath),
		MaxKeys: 1,
	}) {
		if obj.Err != nil {
			return false, errors.Wrap("unable to check existence for: "+dirPath, obj.Err)
		}
		return true, nil
	}
	return false, nil
}

func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if dirPath == "" {
		return nil
	}
	_, err := a.minioClient.PutObject(ctx, a.bucketName, filesystem.DirectoryMarker(dirPath), bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return errors.Wrap("unable to create directory at location: "+dirPath, err)
	}
	return nil
}

func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := a.minioClient.StatObject(ctx, a.bucketName, filePath, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrap("unable to check existence for: "+filePath, err)
}

func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	err := a.minioClient.RemoveObject(ctx, a.bucketName, filePath, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrap("unable to delete file located at: "+filePath, err)
	}
	return nil
}

func (a *Adapter) Write(ctx context.Context, filePath string, content []byte, opts filesystem.WriteOptions) error {
	_, err := a.minioClient.PutObject(ctx, a.bucketName, filePath, bytes.NewReader(content), int64(len(content)), putOptions(opts))
	if err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) WriteStream(ctx context.Context, filePath string, content io.Reader, opts filesystem.WriteOptions) error {
	_, err := a.minioClient.PutObject(ctx, a.bucketName, filePath, content, -1, putOptions(opts))
	if err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error) {
	u, err := a.minioClient.PresignedGetObject(ctx, a.bucketName, filePath, time.Until(expires), nil)
	if err != nil {
		return "", errors.Wrap("unable to generate temporary url for file at location: "+filePath, err)
	}
	return u.String(), nil
}

func (a *Adapter) ObjectURL(filePath string) (string, error) {
	u := *a.minioClient.EndpointURL()
	if a.pathStyle {
		u.Path = "/" + a.bucketName + "/" + filePath
	} else {
		u.Host = a.bucketName + "." + u.Host
		u.Path = "/" + filePath
	}
	return u.String(), nil
}

func putOptions(opts filesystem.WriteOptions) minio.PutObjectOptions {
	meta := map[string]string{}
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	acl := "public-read"
	if opts.Visibility == filesystem.VisibilityPrivate {
		acl = "private"
	}
	meta["x-amz-acl"] = acl

	return minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: meta,
	}
}
