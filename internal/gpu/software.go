package gpu

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
)

// SoftwareDevice runs Program host kernels on a pool of worker goroutines.
// Each dispatch is split into TileSize×TileSize tiles distributed round robin
// across the workers, one kernel invocation per in-bounds cell.
type SoftwareDevice struct {
	prog Program

	// submitMu serializes committed submissions.
	submitMu sync.Mutex

	workerMu      sync.Mutex
	workerCond    *sync.Cond
	workerStep    int
	workerPending int
	workerCount   int
	job           tileJob
	closed        bool
}

// tileJob is one kernel dispatch shared with the workers.
type tileJob struct {
	kernel HostKernel
	in     []uint32
	out    []uint32
	dims   Dims
}

// NewSoftwareDevice starts a software device with the given number of workers.
// workers <= 0 uses one worker per CPU.
func NewSoftwareDevice(prog Program, workers int) (*SoftwareDevice, error) {
	if prog.Initialize == nil || prog.Update == nil {
		return nil, fmt.Errorf("%w: program %q has no host kernels", ErrPipelineCompile, prog.Name)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	d := &SoftwareDevice{prog: prog, workerCount: workers}
	d.workerCond = sync.NewCond(&d.workerMu)
	for i := 0; i < d.workerCount; i++ {
		go d.tileWorkerLoop(i)
	}
	return d, nil
}

// Name reports the device name.
func (d *SoftwareDevice) Name() string {
	return fmt.Sprintf("software (%d workers)", d.workerCount)
}

// NewBuffer allocates a zeroed buffer of size bytes.
func (d *SoftwareDevice) NewBuffer(size int) (Buffer, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of cells", ErrBufferSize, size)
	}
	if d.isClosed() {
		return nil, ErrClosed
	}
	return &softwareBuffer{cells: make([]uint32, size/4)}, nil
}

// NewSubmission starts recording a submission.
func (d *SoftwareDevice) NewSubmission() (Submission, error) {
	if d.isClosed() {
		return nil, fmt.Errorf("%w: %w", ErrSubmission, ErrClosed)
	}
	return &softwareSubmission{dev: d}, nil
}

// Close stops the workers. Work already dispatched finishes first.
func (d *SoftwareDevice) Close() error {
	d.workerMu.Lock()
	d.closed = true
	d.workerCond.Broadcast()
	d.workerMu.Unlock()
	return nil
}

func (d *SoftwareDevice) isClosed() bool {
	d.workerMu.Lock()
	defer d.workerMu.Unlock()
	return d.closed
}

// tileWorkerLoop executes the tiles of each dispatch assigned to worker index.
func (d *SoftwareDevice) tileWorkerLoop(index int) {
	lastStep := 0
	d.workerMu.Lock()
	for {
		for d.workerStep == lastStep {
			if d.closed {
				d.workerMu.Unlock()
				return
			}
			d.workerCond.Wait()
		}
		lastStep = d.workerStep
		job := d.job
		d.workerMu.Unlock()

		runTiles(&job, index, d.workerCount)

		d.workerMu.Lock()
		d.workerPending--
		if d.workerPending == 0 {
			d.workerCond.Broadcast()
		}
	}
}

// dispatch hands job to every worker and waits until all tiles are done.
func (d *SoftwareDevice) dispatch(job tileJob) error {
	d.workerMu.Lock()
	defer d.workerMu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.job = job
	d.workerPending = d.workerCount
	d.workerStep++
	d.workerCond.Broadcast()
	for d.workerPending > 0 {
		d.workerCond.Wait()
	}
	d.job = tileJob{}
	return nil
}

// runTiles executes every tile whose index maps to worker in round robin order.
func runTiles(job *tileJob, worker, workers int) {
	tilesX, tilesY := job.dims.Tiles()
	total := tilesX * tilesY
	for t := worker; t < total; t += workers {
		x0 := (t % tilesX) * TileSize
		y0 := (t / tilesX) * TileSize
		for y := y0; y < y0+TileSize && y < job.dims.Height; y++ {
			for x := x0; x < x0+TileSize && x < job.dims.Width; x++ {
				job.kernel(x, y, job.in, job.out, job.dims)
			}
		}
	}
}

type softwareBuffer struct {
	mu       sync.Mutex
	cells    []uint32
	released bool
}

func (b *softwareBuffer) Size() int { return len(b.cells) * 4 }

func (b *softwareBuffer) Write(src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrClosed
	}
	if len(src) != len(b.cells)*4 {
		return fmt.Errorf("%w: writing %d bytes into %d", ErrBufferSize, len(src), len(b.cells)*4)
	}
	for i := range b.cells {
		b.cells[i] = binary.LittleEndian.Uint32(src[i*4:])
	}
	return nil
}

func (b *softwareBuffer) Read(dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrClosed
	}
	if len(dst) != len(b.cells)*4 {
		return fmt.Errorf("%w: reading %d bytes into %d", ErrBufferSize, len(b.cells)*4, len(dst))
	}
	for i, c := range b.cells {
		binary.LittleEndian.PutUint32(dst[i*4:], c)
	}
	return nil
}

func (b *softwareBuffer) Release() {
	b.mu.Lock()
	b.released = true
	b.cells = nil
	b.mu.Unlock()
}

type softwareSubmission struct {
	dev       *SoftwareDevice
	jobs      []tileJob
	committed bool
}

func (s *softwareSubmission) InitializeWorld(out Buffer, dims Dims) error {
	ob, err := s.bind(out, dims)
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, tileJob{kernel: s.dev.prog.Initialize, out: ob.cells, dims: dims})
	return nil
}

func (s *softwareSubmission) UpdateWorld(live, write Buffer, dims Dims) error {
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
	s.jobs = append(s.jobs, tileJob{kernel: s.dev.prog.Update, in: lb.cells, out: wb.cells, dims: dims})
	return nil
}

func (s *softwareSubmission) bind(buf Buffer, dims Dims) (*softwareBuffer, error) {
	if s.committed {
		return nil, fmt.Errorf("%w: submission already committed", ErrSubmission)
	}
	sb, ok := buf.(*softwareBuffer)
	if !ok {
		return nil, fmt.Errorf("%w: buffer %T does not belong to the software device", ErrSubmission, buf)
	}
	if len(sb.cells) != dims.Cells() {
		return nil, fmt.Errorf("%w: buffer holds %d cells, grid %s needs %d", ErrBufferSize, len(sb.cells), dims, dims.Cells())
	}
	return sb, nil
}

func (s *softwareSubmission) Commit() error {
	if s.committed {
		return fmt.Errorf("%w: submission already committed", ErrSubmission)
	}
	s.committed = true
	s.dev.submitMu.Lock()
	defer s.dev.submitMu.Unlock()
	for _, job := range s.jobs {
		if err := s.dev.dispatch(job); err != nil {
			return fmt.Errorf("%w: %w", ErrSubmission, err)
		}
	}
	return nil
}
