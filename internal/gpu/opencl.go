//go:build opencl

package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// OpenCLDevice runs a Program's OpenCL C kernels on the first GPU found,
// falling back to an OpenCL CPU device.
type OpenCLDevice struct {
	mu               sync.Mutex
	context          *cl.Context
	queue            *cl.CommandQueue
	program          *cl.Program
	initializeKernel *cl.Kernel
	updateKernel     *cl.Kernel
	deviceName       string
	buffers          map[*openCLBuffer]struct{}
}

// NewOpenCLDevice opens a device and builds prog on it.
func NewOpenCLDevice(prog Program) (*OpenCLDevice, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, msg, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no OpenCL platforms available; ensure a vendor driver is installed and detected by `clinfo`", ErrDeviceUnavailable)
	}
	device := firstDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = firstDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, fmt.Errorf("%w: no suitable OpenCL devices found", ErrDeviceUnavailable)
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("%w: creating OpenCL context: %w", ErrDeviceUnavailable, err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("%w: creating OpenCL command queue: %w", ErrDeviceUnavailable, err)
	}
	d := &OpenCLDevice{
		context:    context,
		queue:      queue,
		deviceName: device.Name(),
		buffers:    make(map[*openCLBuffer]struct{}),
	}

	program, err := context.CreateProgramWithSource([]string{prog.Source})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: creating OpenCL program %q: %w", ErrPipelineCompile, prog.Name, err)
	}
	d.program = program
	if err := program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		d.Close()
		var buildErr cl.BuildError
		if errors.As(err, &buildErr) {
			return nil, fmt.Errorf("%w: building OpenCL program %q: %s", ErrPipelineCompile, prog.Name, string(buildErr))
		}
		return nil, fmt.Errorf("%w: building OpenCL program %q: %w", ErrPipelineCompile, prog.Name, err)
	}
	if d.initializeKernel, err = program.CreateKernel(KernelInitializeWorld); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: creating %s kernel: %w", ErrPipelineCompile, KernelInitializeWorld, err)
	}
	if d.updateKernel, err = program.CreateKernel(KernelUpdateWorld); err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: creating %s kernel: %w", ErrPipelineCompile, KernelUpdateWorld, err)
	}
	return d, nil
}

func firstDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

// Name reports the OpenCL device name.
func (d *OpenCLDevice) Name() string {
	return d.deviceName
}

// NewBuffer allocates a read-write device buffer of size bytes.
func (d *OpenCLDevice) NewBuffer(size int) (Buffer, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of cells", ErrBufferSize, size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.context == nil {
		return nil, ErrClosed
	}
	mem, err := d.context.CreateEmptyBuffer(cl.MemReadWrite, size)
	if err != nil {
		return nil, fmt.Errorf("allocating %d byte buffer: %w", size, err)
	}
	b := &openCLBuffer{dev: d, mem: mem, size: size}
	d.buffers[b] = struct{}{}
	return b, nil
}

// NewSubmission starts recording a submission on the device queue.
func (d *OpenCLDevice) NewSubmission() (Submission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue == nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, ErrClosed)
	}
	return &openCLSubmission{dev: d}, nil
}

// Close waits for queued work and releases every device resource.
func (d *OpenCLDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue != nil {
		_ = d.queue.Finish()
	}
	for b := range d.buffers {
		b.releaseLocked()
	}
	if d.updateKernel != nil {
		d.updateKernel.Release()
		d.updateKernel = nil
	}
	if d.initializeKernel != nil {
		d.initializeKernel.Release()
		d.initializeKernel = nil
	}
	if d.program != nil {
		d.program.Release()
		d.program = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.context != nil {
		d.context.Release()
		d.context = nil
	}
	return nil
}

type openCLBuffer struct {
	dev  *OpenCLDevice
	mem  *cl.MemObject
	size int
}

func (b *openCLBuffer) Size() int { return b.size }

func (b *openCLBuffer) Write(src []byte) error {
	if len(src) != b.size {
		return fmt.Errorf("%w: writing %d bytes into %d", ErrBufferSize, len(src), b.size)
	}
	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	if b.mem == nil || b.dev.queue == nil {
		return ErrClosed
	}
	if _, err := b.dev.queue.EnqueueWriteBuffer(b.mem, true, 0, b.size, unsafe.Pointer(&src[0]), nil); err != nil {
		return fmt.Errorf("writing buffer: %w", err)
	}
	return nil
}

func (b *openCLBuffer) Read(dst []byte) error {
	if len(dst) != b.size {
		return fmt.Errorf("%w: reading %d bytes into %d", ErrBufferSize, b.size, len(dst))
	}
	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()
	if b.mem == nil || b.dev.queue == nil {
		return ErrClosed
	}
	if _, err := b.dev.queue.EnqueueReadBuffer(b.mem, true, 0, b.size, unsafe.Pointer(&dst[0]), nil); err != nil {
		return fmt.Errorf("reading buffer: %w", err)
	}
	return nil
}

func (b *openCLBuffer) Release() {
	b.dev.mu.Lock()
	b.releaseLocked()
	b.dev.mu.Unlock()
}

func (b *openCLBuffer) releaseLocked() {
	if b.mem != nil {
		b.mem.Release()
		b.mem = nil
	}
	delete(b.dev.buffers, b)
}

type openCLSubmission struct {
	dev       *OpenCLDevice
	ops       []func() error
	committed bool
}

func (s *openCLSubmission) InitializeWorld(out Buffer, dims Dims) error {
	ob, err := s.bind(out, dims)
	if err != nil {
		return err
	}
	s.ops = append(s.ops, func() error {
		if err := s.dev.initializeKernel.SetArgs(ob.mem, int32(dims.Width), int32(dims.Height)); err != nil {
			return fmt.Errorf("setting %s arguments: %w", KernelInitializeWorld, err)
		}
		return s.enqueue(s.dev.initializeKernel, dims)
	})
	return nil
}

func (s *openCLSubmission) UpdateWorld(live, write Buffer, dims Dims) error {
	lb, err := s.bind(live, dims)
	if err != nil {
		return err
	}
	wb, err := s.bind(write, dims)
	if err != nil {
		return err
	}
	if lb == wb {
		return fmt.Errorf("%w: live and write buffers alias", ErrSubmission)
	}
	s.ops = append(s.ops, func() error {
		if err := s.dev.updateKernel.SetArgs(lb.mem, wb.mem, int32(dims.Width), int32(dims.Height)); err != nil {
			return fmt.Errorf("setting %s arguments: %w", KernelUpdateWorld, err)
		}
		return s.enqueue(s.dev.updateKernel, dims)
	})
	return nil
}

func (s *openCLSubmission) bind(buf Buffer, dims Dims) (*openCLBuffer, error) {
	if s.committed {
		return nil, fmt.Errorf("%w: submission already committed", ErrSubmission)
	}
	ob, ok := buf.(*openCLBuffer)
	if !ok || ob.dev != s.dev {
		return nil, fmt.Errorf("%w: buffer %T does not belong to this device", ErrSubmission, buf)
	}
	if ob.size != dims.Cells()*4 {
		return nil, fmt.Errorf("%w: buffer holds %d bytes, grid %s needs %d", ErrBufferSize, ob.size, dims, dims.Cells()*4)
	}
	return ob, nil
}

func (s *openCLSubmission) enqueue(kernel *cl.Kernel, dims Dims) error {
	gx, gy := dims.GlobalSize()
	global := []int{gx, gy}
	local := []int{TileSize, TileSize}
	if _, err := s.dev.queue.EnqueueNDRangeKernel(kernel, nil, global, local, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	return nil
}

// Commit enqueues every recorded dispatch and blocks until the queue drains.
func (s *openCLSubmission) Commit() error {
	if s.committed {
		return fmt.Errorf("%w: submission already committed", ErrSubmission)
	}
	s.committed = true
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.dev.queue == nil {
		return fmt.Errorf("%w: %w", ErrSubmission, ErrClosed)
	}
	for _, op := range s.ops {
		if err := op(); err != nil {
			return fmt.Errorf("%w: %w", ErrSubmission, err)
		}
	}
	if err := s.dev.queue.Finish(); err != nil {
		return fmt.Errorf("%w: waiting for queue: %w", ErrSubmission, err)
	}
	return nil
}
