package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData means cleaning removed every row, leaving nothing to analyze.
var ErrNoData = errors.New("no valid data after cleaning")

// ErrSessionNotFound means a session id is unknown or its TTL has expired.
var ErrSessionNotFound = errors.New("session not found or expired")

// MissingColumnsError reports the required canonical fields that no uploaded
// header resolved to.
type MissingColumnsError struct {
	Fields []Field
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
}
