// Package gpu defines the compute-device contract the world runs its kernels on,
// together with a software device and an OpenCL device (build tag opencl).
package gpu

import (
	"errors"
	"fmt"
	"strings"
)

// TileSize is the edge length of a dispatch tile. One kernel invocation runs per
// cell and invocations are grouped into TileSize×TileSize work groups.
const TileSize = 16

// Kernel entry points every Program must define.
const (
	KernelInitializeWorld = "initialize_world"
	KernelUpdateWorld     = "update_world"
)

var (
	// ErrDeviceUnavailable means no usable compute device could be opened.
	ErrDeviceUnavailable = errors.New("compute device unavailable")
	// ErrPipelineCompile means the kernel program could not be built.
	ErrPipelineCompile = errors.New("kernel pipeline creation failed")
	// ErrSubmission means a command submission could not be created or completed.
	ErrSubmission = errors.New("command submission failed")
	// ErrBufferSize is returned when host data does not match a buffer's size.
	ErrBufferSize = errors.New("buffer size mismatch")
	// ErrClosed is returned by operations on a released device or buffer.
	ErrClosed = errors.New("device closed")
)

// Dims are grid dimensions in cells.
type Dims struct {
	Width  int
	Height int
}

// Cells returns the number of cells in the grid.
func (d Dims) Cells() int { return d.Width * d.Height }

// Validate rejects non-positive dimensions.
func (d Dims) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", d.Width, d.Height)
	}
	return nil
}

func (d Dims) String() string { return fmt.Sprintf("%dx%d", d.Width, d.Height) }

// Tiles returns the number of dispatch tiles along each axis.
func (d Dims) Tiles() (int, int) {
	return (d.Width + TileSize - 1) / TileSize, (d.Height + TileSize - 1) / TileSize
}

// GlobalSize returns the dispatch extent rounded up to whole tiles.
func (d Dims) GlobalSize() (int, int) {
	tx, ty := d.Tiles()
	return tx * TileSize, ty * TileSize
}

// Buffer is device memory holding one grid generation.
type Buffer interface {
	Size() int
	// Write uploads src, which must be exactly Size bytes.
	Write(src []byte) error
	// Read downloads the buffer into dst, which must be exactly Size bytes.
	Read(dst []byte) error
	Release()
}

// Submission records kernel dispatches and submits them with Commit.
type Submission interface {
	// InitializeWorld encodes initialize_world over out, in place.
	InitializeWorld(out Buffer, dims Dims) error
	// UpdateWorld encodes update_world reading live and writing write.
	UpdateWorld(live, write Buffer, dims Dims) error
	// Commit submits the encoded work and blocks until it completes.
	Commit() error
}

// Device is a compute device able to run a Program's kernels.
type Device interface {
	Name() string
	NewBuffer(size int) (Buffer, error)
	NewSubmission() (Submission, error)
	Close() error
}

// HostKernel is the body of one kernel invocation at grid position (x, y) for the
// software device. in is nil for initialize_world, which updates out in place.
type HostKernel func(x, y int, in, out []uint32, dims Dims)

// Program is a pair of world kernels. Source is OpenCL C defining
// initialize_world(out, width, height) and update_world(live, next, width, height);
// Initialize and Update are the same kernels for the software device.
type Program struct {
	Name       string
	Source     string
	Initialize HostKernel
	Update     HostKernel
}

// Backends accepted by Open.
const (
	BackendOpenCL   = "opencl"
	BackendSoftware = "software"
)

// Open creates a device for the named backend.
func Open(backend string, prog Program) (Device, error) {
	switch strings.ToLower(backend) {
	case BackendOpenCL, "gpu", "":
		d, err := NewOpenCLDevice(prog)
		if err != nil {
			return nil, err
		}
		return d, nil
	case BackendSoftware, "cpu":
		d, err := NewSoftwareDevice(prog, 0)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrDeviceUnavailable, backend)
	}
}
