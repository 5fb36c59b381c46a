package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

// newFileID builds a record id from the current unix-milli timestamp plus a
// 64-bit random suffix. The timestamp keeps ids roughly sortable; the
// suffix makes accidental collision negligible even across restarts.
func newFileID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), randomSuffix(rand.Reader))
}

// randomSuffix panics when the entropy source fails rather than degrading
// to a predictable suffix, which could collide with another save in the
// same millisecond.
func randomSuffix(r io.Reader) string {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		panic(fmt.Sprintf("file id entropy source failed: %v", err))
	}
	return hex.EncodeToString(b[:])
}
