// Package filesystem defines the storage abstraction the bucket handles
// talk to. Drivers live in the sub-packages and register themselves as
// modules, e.g.
//
//	import _ "github.com/timemore/bucket/filesystem/s3"
package filesystem

import (
	"context"
	"io"
	"time"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// WriteOptions are applied to every object written through an Adapter.
type WriteOptions struct {
	Visibility  Visibility
	ContentType string
	Metadata    map[string]string
}

// Adapter is the filesystem view of one bucket. Directories are virtual on
// object stores; they exist as long as a key carries their prefix.
type Adapter interface {
	DirectoryExists(ctx context.Context, dirPath string) (bool, error)
	CreateDirectory(ctx context.Context, dirPath string) error
	FileExists(ctx context.Context, filePath string) (bool, error)
	Delete(ctx context.Context, filePath string) error
	Write(ctx context.Context, filePath string, content []byte, opts WriteOptions) error
	WriteStream(ctx context.Context, filePath string, content io.Reader, opts WriteOptions) error

	// TemporaryURL returns a presigned URL for filePath which stays
	// valid until expires.
	TemporaryURL(ctx context.Context, filePath string, expires time.Time) (string, error)
}

// URLResolver is implemented by adapters which can tell the canonical,
// unsigned URL of an object.
type URLResolver interface {
	ObjectURL(filePath string) (string, error)
}

// Config holds what a driver needs to build its client. It is a snapshot;
// adapters never see later changes.
type Config struct {
	Endpoint             string
	Region               string
	UsePathStyleEndpoint bool
	AccessKey            string
	SecretKey            string
	BucketName           string
	CredentialsFile      string
}

// DirectoryMarker is the key used to materialize an empty directory on an
// object store.
func DirectoryMarker(dirPath string) string {
	if dirPath == "" {
		return ""
	}
	return dirPath + "/"
}
