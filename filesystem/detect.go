package filesystem

import (
	"bytes"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a stream is read to detect its content type.
const sniffLen = 3072

// DetectContentType returns the MIME type of content.
func DetectContentType(content []byte) string {
	// Detect always returns valid MIME.
	return mimetype.Detect(content).String()
}

// DetectStreamContentType detects the MIME type of the head of r. The
// returned reader yields the complete, unconsumed stream.
func DetectStreamContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head = head[:n]

	return DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// DetectStreamExtension returns the file extension, dot included, of the
// MIME type of the head of r, or "" when the type has none.
func DetectStreamExtension(r io.Reader) (string, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return mime.Extension(), nil
}
