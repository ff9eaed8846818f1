// Package s3 is the driver for AWS S3 and S3-compatible stores (R2,
// Spaces, MinIO, ...). It is the default driver.
package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/timemore/bucket/errors"
	"github.com/timemore/bucket/filesystem"
)

const ServiceName = "s3"

const regionDefault = "auto"

const uploadPartSize = 10 * 1024 * 1024 // 10MiB

func init() {
	filesystem.RegisterModule(
		ServiceName,
		filesystem.Module{
			NewAdapter: NewAdapter,
		})
}

// NewClient creates the S3 client for config. The session is created
// lazily by the SDK; nothing is sent before the first request.
func NewClient(config filesystem.Config) (*s3.S3, error) {
	region := config.Region
	if region == "" {
		region = regionDefault
	}

	var creds *credentials.Credentials
	if config.AccessKey != "" {
		creds = credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		)
	}

	awsConfig := &aws.Config{
		Region:           aws.String(region),
		Credentials:      creds,
		S3ForcePathStyle: aws.Bool(config.UsePathStyleEndpoint),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap("AWS Session", err)
	}

	return s3.New(sess), nil
}

func NewAdapter(config filesystem.Config) (filesystem.Adapter, error) {
	if config.BucketName == "" {
		return nil, errors.ArgMsg("config.BucketName", "empty")
	}

	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		bucketName: config.BucketName,
		client:     client,
		uploader: s3manager.NewUploaderWithClient(client, func(u *s3manager.Uploader) {
			u.PartSize = uploadPartSize
		}),
	}, nil
}

type Adapter struct {
	bucketName string
	client     *s3.S3
	uploader   *s3manager.Uploader
}

var (
	_ filesystem.Adapter     = &Adapter{}
	_ filesystem.URLResolver = &Adapter{}
)

func (a *Adapter) DirectoryExists(ctx context.Context, dirPath string) (bool, error) {
	if dirPath == "" {
		return true, nil
	}
	out, err := a.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(a.bucketName),
		Prefix:  aws.String(filesystem.DirectoryMarker(dirPath)),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		return false, errors.Wrap("unable to check existence for: "+dirPath, err)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if dirPath == "" {
		return nil
	}
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(filesystem.DirectoryMarker(dirPath)),
		Body:   bytes.NewReader(nil),
	})
	if err != nil {
		return errors.Wrap("unable to create directory at location: "+dirPath, err)
	}
	return nil
}

func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := a.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(filePath),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, errors.Wrap("unable to check existence for: "+filePath, err)
}

func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	_, err := a.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(filePath),
	})
	if err != nil {
		return errors.Wrap("unable to delete file located at: "+filePath, err)
	}
	return nil
}

func (a *Adapter) Write(ctx context.Context, filePath string, content []byte, opts filesystem.WriteOptions) error {
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(filePath),
		Body:        bytes.NewReader(content),
		ACL:         aws.String(cannedACL(opts.Visibility)),
		ContentType: contentType(opts),
		Metadata:    aws.StringMap(opts.Metadata),
	})
	if err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) WriteStream(ctx context.Context, filePath string, content io.Reader, opts filesystem.WriteOptions) error {
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucketName),
		Key:         aws.String(filePath),
		Body:        content,
		ACL:         aws.String(cannedACL(opts.Visibility)),
		ContentType: contentType(opts),
		Metadata:    aws.StringMap(opts.Metadata),
	})
	if err != nil {
		return errors.Wrap("unable to write file at location: "+filePath, err)
	}
	return nil
}

func (a *Adapter) TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error) {
	req, _ := a.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(filePath),
	})
	req.SetContext(ctx)
	signed, err := req.Presign(time.Until(expires))
	if err != nil {
		return "", errors.Wrap("unable to generate temporary url for file at location: "+filePath, err)
	}
	return signed, nil
}

// ObjectURL builds the unsigned GET URL of filePath. Depending on the
// endpoint the SDK produces a virtual-hosted-style URL even when path
// style is configured.
func (a *Adapter) ObjectURL(filePath string) (string, error) {
	req, _ := a.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(filePath),
	})
	if err := req.Build(); err != nil {
		return "", errors.Wrap("build object request", err)
	}
	return req.HTTPRequest.URL.String(), nil
}

func cannedACL(visibility filesystem.Visibility) string {
	if visibility == filesystem.VisibilityPrivate {
		return s3.ObjectCannedACLPrivate
	}
	return s3.ObjectCannedACLPublicRead
}

func contentType(opts filesystem.WriteOptions) *string {
	if opts.ContentType == "" {
		return nil
	}
	return aws.String(opts.ContentType)
}

func isNotFound(err error) bool {
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
