package filesystem

import (
	"encoding/hex"
	"io"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

const nameGenHashLength = 16

const nameGenKeyDefault = "N0k3y"

// ContentName generates a file name from the content of stream. The same
// content and key always give the same name, which makes it usable to
// store anonymous uploads without duplicates.
func ContentName(stream io.Reader, key string) (string, error) {
	keyBytes := []byte(key)
	if len(keyBytes) < 4 {
		keyBytes = []byte(nameGenKeyDefault)
	}
	hasher, err := blake2b.New(nameGenHashLength, keyBytes)
	if err != nil {
		return "", err
	}

	dataSize, err := io.Copy(hasher, stream)
	if err != nil {
		return "", err
	}

	hashBytes := hasher.Sum(nil)

	return hex.EncodeToString(hashBytes) + "K" + hex.EncodeToString(keyBytes[:4]) + "N" + strconv.FormatInt(dataSize, 16), nil
}
