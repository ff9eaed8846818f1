package bucket

import (
	"path"
	"strings"
)

// Normalize turns p into the canonical object path: forward slashes only,
// no empty, "." or ".." segments and no leading or trailing slash. ".."
// never climbs above the bucket root. The bucket root is "".
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.Trim(p, "/")
}

// Join appends name to base with exactly one separator.
func Join(base, name string) string {
	return Normalize(base + "/" + name)
}

// Split returns the directory and the file name of p. The directory of a
// top-level object is "".
func Split(p string) (dir, fileName string) {
	p = Normalize(p)
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return "", p
}

// WithBucket qualifies objectPath with the bucket alias, e.g.
// "s3://images/photo.jpg".
func WithBucket(objectPath, bucketAlias string) string {
	return bucketAlias + "://" + objectPath
}
