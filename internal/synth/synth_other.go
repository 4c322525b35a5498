//go:build !darwin

package synth

import "errors"

// ErrUnsupported is returned by the non-darwin Synthesizer.
var ErrUnsupported = errors.New("synth: key synthesis is unavailable on this platform")

type unsupportedSynthesizer struct{}

// NewSynthesizer returns a Synthesizer that always fails. Tests
// exercising internal/dispatch should supply their own fake instead.
func NewSynthesizer() Synthesizer { return unsupportedSynthesizer{} }

func (unsupportedSynthesizer) PostKeyEvent(keycode uint32, mods uint32, down bool, marker uint64) error {
	return ErrUnsupported
}
