// Package ids issues time-ordered identifiers for rows and events.
package ids

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a fresh identifier. Stores accept one so tests can pin ids.
type Generator func() (string, error)

// NewV7 is the default Generator: UUIDv7, sortable by creation time.
func NewV7() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Sequence returns a Generator yielding prefix-1, prefix-2 and so on. Safe for concurrent use.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() (string, error) {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10), nil
	}
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}
