// Package reportsink stores generated report files and hands out links to
// them.
package reportsink

import (
	"context"
	"errors"
	"path"
	"regexp"
)

var (
	ErrNotFound    = errors.New("reportsink: report not found")
	ErrInvalidName = errors.New("reportsink: invalid report name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Sink persists report bytes under a flat name.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// ShareURL returns a link a recipient can download the report from.
	ShareURL(ctx context.Context, name string) (string, error)
}

// CheckName rejects names that could escape the sink's namespace.
func CheckName(name string) error {
	if !validName.MatchString(name) || path.Base(name) != name || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}
