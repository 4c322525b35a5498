//go:build !darwin

package eventtap

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by the non-darwin Tap: there is no real
// event source to open off macOS (spec.md §1 scope).
var ErrUnsupported = errors.New("eventtap: no event tap available on this platform")

type unsupportedTap struct{}

// NewTap returns a Tap that always fails to Run. Tests exercising
// internal/dispatch should supply their own fake Tap instead.
func NewTap() Tap { return unsupportedTap{} }

func (unsupportedTap) Run(ctx context.Context, handler Handler) error {
	return ErrUnsupported
}
