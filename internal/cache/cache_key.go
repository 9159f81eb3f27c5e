package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeKey generates a deterministic key from a scope and a value, such as
// a region and credential or a file path and chunk content. The value only
// enters the key through its SHA-256 hash so raw secrets are never held as
// map keys.
func ComputeKey(scope, value string) string {
	input := fmt.Sprintf("%s:%s", scope, value)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
