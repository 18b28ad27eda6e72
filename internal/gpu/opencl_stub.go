//go:build !opencl

package gpu

import "fmt"

// OpenCLDevice is unavailable without the opencl build tag.
type OpenCLDevice struct{}

// NewOpenCLDevice always fails; rebuild with -tags opencl.
func NewOpenCLDevice(prog Program) (*OpenCLDevice, error) {
	return nil, fmt.Errorf("%w: OpenCL support is not enabled; rebuild with -tags opencl or use -device software", ErrDeviceUnavailable)
}

func (d *OpenCLDevice) Name() string { return "" }

func (d *OpenCLDevice) NewBuffer(int) (Buffer, error) { return nil, ErrDeviceUnavailable }

func (d *OpenCLDevice) NewSubmission() (Submission, error) { return nil, ErrDeviceUnavailable }

func (d *OpenCLDevice) Close() error { return nil }
