package pixel

import "fmt"

// InvalidBufferError reports a buffer with zero or negative dimensions or a
// pixel slice whose length does not match Width*Height*4.
type InvalidBufferError struct {
	Width  int
	Height int
	PixLen int
}

func (e *InvalidBufferError) Error() string {
	return fmt.Sprintf("invalid pixel buffer: %dx%d with %d bytes", e.Width, e.Height, e.PixLen)
}

// ConfigurationError reports a missing or out-of-range option on an engine
// call, such as a color-range segmentation without a target color.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Option, e.Reason)
}

// AllocationError reports requested output dimensions whose estimated
// memory exceeds the configured ceiling. It is raised by caller-side
// pre-checks; the algorithms themselves do not enforce memory bounds.
type AllocationError struct {
	Width  int
	Height int
	Limit  int64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("output %dx%d exceeds memory limit of %d bytes", e.Width, e.Height, e.Limit)
}

// EstimatedBytes returns the working-memory estimate for a buffer of the
// given dimensions, including a 20% overhead for intermediate passes.
func EstimatedBytes(width, height int) int64 {
	return int64(float64(width) * float64(height) * BytesPerPixel * 1.2)
}

// CheckAllocation validates an output size against a memory ceiling.
// A limit of zero or less disables the check.
func CheckAllocation(width, height int, limit int64) error {
	if limit <= 0 {
		return nil
	}
	if EstimatedBytes(width, height) > limit {
		return &AllocationError{Width: width, Height: height, Limit: limit}
	}
	return nil
}
