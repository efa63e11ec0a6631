package utils

import (
	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string. ULIDs sort lexicographically by
// creation time, which keeps attempt public ids and event ids index
// friendly. ulid.Make reads crypto/rand entropy under the hood.
func NewULID() string {
	return ulid.Make().String()
}
