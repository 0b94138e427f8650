package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the hex xxhash64 of a file's content. Change
// detection compares it with the hash stored for the path.
func ContentHash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}
