package gpio

import "github.com/sweeney/signal-controller/internal/logic"

// FakeWriter is a test double that records applied outputs.
type FakeWriter struct {
	// Applied contains every output state passed to Apply, in order.
	Applied []logic.Outputs

	// Closed tracks if Close was called.
	Closed bool

	// ApplyError, if set, will be returned by Apply()
	ApplyError error
}

// NewFakeWriter creates a FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Apply records the output state.
func (f *FakeWriter) Apply(out logic.Outputs) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Applied = append(f.Applied, out)
	return nil
}

// Last returns the most recently applied outputs, or all-stop if nothing
// was applied yet.
func (f *FakeWriter) Last() logic.Outputs {
	if len(f.Applied) == 0 {
		return logic.Outputs{NS: logic.AspectStop, EW: logic.AspectStop}
	}
	return f.Applied[len(f.Applied)-1]
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded outputs.
func (f *FakeWriter) Reset() {
	f.Applied = nil
	f.Closed = false
	f.ApplyError = nil
}
