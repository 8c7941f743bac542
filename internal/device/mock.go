package device

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MockBackend is a CPU-backed compute backend for development and tests. It
// satisfies the backend interfaces, executes the beam search kernels on the
// host (FFT via gonum), and keeps live-handle counts so tests can assert
// that nothing leaks.
type MockBackend struct {
	device DeviceInfo

	// FailBuild, when set, makes every program build fail with this error.
	FailBuild error
	// FailKernelName, when set, makes creation of the named kernel fail.
	FailKernelName string

	mu           sync.Mutex
	liveContexts int
	livePrograms int
	liveKernels  int
	liveBuffers  int
}

// NewMockBackend returns a mock backend with a single fake device.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		device: DeviceInfo{
			Name:        "MockGPU",
			Vendor:      "gpuworklib",
			Driver:      "mock",
			MemoryBytes: 256 << 20,
		},
	}
}

// SetDeviceMemory overrides the reported device memory for planner tests.
func (b *MockBackend) SetDeviceMemory(bytes int64) {
	b.device.MemoryBytes = bytes
}

func (b *MockBackend) Info() BackendInfo {
	return BackendInfo{
		Name:        "mock",
		Version:     "0.1",
		Description: "CPU-backed mock compute backend",
	}
}

func (b *MockBackend) Available() bool { return true }

func (b *MockBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{b.device}, nil
}

func (b *MockBackend) NewContext(deviceIndex int) (Context, error) {
	if deviceIndex != 0 {
		return nil, fmt.Errorf("device: mock backend device index %d out of range", deviceIndex)
	}
	b.track(&b.liveContexts, +1)
	return &mockContext{backend: b}, nil
}

// LivePrograms reports the number of program handles not yet released.
func (b *MockBackend) LivePrograms() int { return b.count(&b.livePrograms) }

// LiveKernels reports the number of kernel handles not yet released.
func (b *MockBackend) LiveKernels() int { return b.count(&b.liveKernels) }

// LiveBuffers reports the number of buffer handles not yet released.
func (b *MockBackend) LiveBuffers() int { return b.count(&b.liveBuffers) }

func (b *MockBackend) track(counter *int, delta int) {
	b.mu.Lock()
	*counter += delta
	b.mu.Unlock()
}

func (b *MockBackend) count(counter *int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *counter
}

type mockContext struct {
	backend *MockBackend
	closed  bool
}

func (c *mockContext) Device() DeviceInfo { return c.backend.device }

func (c *mockContext) NewBuffer(elemCount int, kind ElemKind, flag MemFlag) (Buffer, error) {
	if c.closed {
		return nil, ErrReleased
	}
	if elemCount <= 0 {
		return nil, fmt.Errorf("%w: element count %d", ErrInvalidBuffer, elemCount)
	}
	buf := &mockBuffer{backend: c.backend, kind: kind, flag: flag, len: elemCount}
	switch kind {
	case ElemFloat64:
		buf.f64 = make([]float64, elemCount)
	case ElemComplex128:
		buf.c128 = make([]complex128, elemCount)
	default:
		return nil, fmt.Errorf("%w: unknown element kind %d", ErrInvalidBuffer, kind)
	}
	c.backend.track(&c.backend.liveBuffers, +1)
	return buf, nil
}

func (c *mockContext) NewQueue() (Queue, error) {
	if c.closed {
		return nil, ErrReleased
	}
	return &mockQueue{}, nil
}

func (c *mockContext) BuildProgram(source string) (Program, error) {
	if c.closed {
		return nil, ErrReleased
	}
	if c.backend.FailBuild != nil {
		return nil, &BuildFailedError{Log: "mock compiler: injected failure", Err: c.backend.FailBuild}
	}
	if strings.TrimSpace(source) == "" {
		return nil, &BuildFailedError{Log: "mock compiler: empty translation unit", Err: errors.New("empty source")}
	}
	c.backend.track(&c.backend.livePrograms, +1)
	return &mockProgram{backend: c.backend}, nil
}

func (c *mockContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.backend.track(&c.backend.liveContexts, -1)
	return nil
}

type mockProgram struct {
	backend  *MockBackend
	released bool
}

func (p *mockProgram) CreateKernel(name string) (Kernel, error) {
	if p.released {
		return nil, ErrReleased
	}
	if name == p.backend.FailKernelName {
		return nil, fmt.Errorf("device: mock kernel %q creation rejected", name)
	}
	known := false
	for _, n := range StandardKernelNames() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("device: program has no kernel %q", name)
	}
	p.backend.track(&p.backend.liveKernels, +1)
	return &mockKernel{backend: p.backend, name: name}, nil
}

func (p *mockProgram) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	p.backend.track(&p.backend.livePrograms, -1)
	return nil
}

type mockKernel struct {
	backend  *MockBackend
	name     string
	released bool
}

func (k *mockKernel) Name() string { return k.name }

func (k *mockKernel) Release() error {
	if k.released {
		return nil
	}
	k.released = true
	k.backend.track(&k.backend.liveKernels, -1)
	return nil
}

type mockBuffer struct {
	backend  *MockBackend
	kind     ElemKind
	flag     MemFlag
	len      int
	f64      []float64
	c128     []complex128
	released bool
}

func (b *mockBuffer) Len() int       { return b.len }
func (b *mockBuffer) Kind() ElemKind { return b.kind }
func (b *mockBuffer) Flag() MemFlag  { return b.flag }

// Upload and Download are host transfers; memory flags constrain kernel
// access only, so both directions are allowed here regardless of flag.
func (b *mockBuffer) Upload(src any) error {
	if b.released {
		return ErrReleased
	}
	switch s := src.(type) {
	case []float64:
		if b.kind != ElemFloat64 || len(s) != b.len {
			return fmt.Errorf("%w: upload []float64 len %d into %s buffer len %d",
				ErrInvalidBuffer, len(s), kindLabel(b.kind), b.len)
		}
		copy(b.f64, s)
	case []complex128:
		if b.kind != ElemComplex128 || len(s) != b.len {
			return fmt.Errorf("%w: upload []complex128 len %d into %s buffer len %d",
				ErrInvalidBuffer, len(s), kindLabel(b.kind), b.len)
		}
		copy(b.c128, s)
	default:
		return fmt.Errorf("%w: unsupported upload type %T", ErrInvalidBuffer, src)
	}
	return nil
}

func (b *mockBuffer) Download(dst any) error {
	if b.released {
		return ErrReleased
	}
	switch d := dst.(type) {
	case []float64:
		if b.kind != ElemFloat64 || len(d) != b.len {
			return fmt.Errorf("%w: download into []float64 len %d from %s buffer len %d",
				ErrInvalidBuffer, len(d), kindLabel(b.kind), b.len)
		}
		copy(d, b.f64)
	case []complex128:
		if b.kind != ElemComplex128 || len(d) != b.len {
			return fmt.Errorf("%w: download into []complex128 len %d from %s buffer len %d",
				ErrInvalidBuffer, len(d), kindLabel(b.kind), b.len)
		}
		copy(d, b.c128)
	default:
		return fmt.Errorf("%w: unsupported download type %T", ErrInvalidBuffer, dst)
	}
	return nil
}

func (b *mockBuffer) Release() error {
	if b.released {
		return nil
	}
	b.released = true
	b.backend.track(&b.backend.liveBuffers, -1)
	return nil
}

func kindLabel(k ElemKind) string {
	if k == ElemComplex128 {
		return "complex128"
	}
	return "float64"
}

type mockQueue struct{}

// EnqueueKernel executes the kernel synchronously on the host. Argument
// conventions mirror the kernel signatures in kernels/search3fft.cl:
//
//	fft_forward(in f64, out c128, countPoints, nfft)   global = beams
//	magnitude(in c128, out f64, nfft)                  global = beams
//	peak_search(in f64, out f64, nfft)                 global = beams
func (q *mockQueue) EnqueueKernel(k Kernel, globalSize int, args ...any) error {
	if globalSize <= 0 {
		return fmt.Errorf("device: kernel %q global size %d", k.Name(), globalSize)
	}
	switch k.Name() {
	case KernelFFTForward:
		return runFFTForward(globalSize, args)
	case KernelMagnitude:
		return runMagnitude(globalSize, args)
	case KernelPeakSearch:
		return runPeakSearch(globalSize, args)
	default:
		return fmt.Errorf("device: mock cannot execute kernel %q", k.Name())
	}
}

func (q *mockQueue) Synchronize() error { return nil }
func (q *mockQueue) Close() error       { return nil }

// kernelArgs validates the common (in, out) buffer pair and enforces the
// declared memory flags: the kernel reads in and writes out, so a write-only
// input or a read-only output is a backend-reported invocation error.
func kernelArgs(name string, args []any, inKind, outKind ElemKind) (*mockBuffer, *mockBuffer, error) {
	if len(args) < 2 {
		return nil, nil, fmt.Errorf("device: kernel %q expects at least 2 args, got %d", name, len(args))
	}
	in, ok := args[0].(*mockBuffer)
	if !ok || in.kind != inKind {
		return nil, nil, fmt.Errorf("device: kernel %q arg 0 must be a %s buffer", name, kindLabel(inKind))
	}
	out, ok := args[1].(*mockBuffer)
	if !ok || out.kind != outKind {
		return nil, nil, fmt.Errorf("device: kernel %q arg 1 must be a %s buffer", name, kindLabel(outKind))
	}
	if in.released || out.released {
		return nil, nil, ErrReleased
	}
	if in.flag == MemWriteOnly {
		return nil, nil, fmt.Errorf("%w: kernel %q reads a %s buffer", ErrFlagMismatch, name, in.flag)
	}
	if out.flag == MemReadOnly {
		return nil, nil, fmt.Errorf("%w: kernel %q writes a %s buffer", ErrFlagMismatch, name, out.flag)
	}
	return in, out, nil
}

func intArg(name string, args []any, idx int) (int, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("device: kernel %q missing arg %d", name, idx)
	}
	v, ok := args[idx].(int)
	if !ok {
		return 0, fmt.Errorf("device: kernel %q arg %d must be int, got %T", name, idx, args[idx])
	}
	if v <= 0 {
		return 0, fmt.Errorf("device: kernel %q arg %d must be positive, got %d", name, idx, v)
	}
	return v, nil
}

func runFFTForward(beams int, args []any) error {
	in, out, err := kernelArgs(KernelFFTForward, args, ElemFloat64, ElemComplex128)
	if err != nil {
		return err
	}
	countPoints, err := intArg(KernelFFTForward, args, 2)
	if err != nil {
		return err
	}
	nfft, err := intArg(KernelFFTForward, args, 3)
	if err != nil {
		return err
	}
	if in.len < beams*countPoints || out.len < beams*nfft {
		return fmt.Errorf("%w: fft_forward buffers too small for %d beams", ErrInvalidBuffer, beams)
	}

	fft := fourier.NewCmplxFFT(nfft)
	work := make([]complex128, nfft)
	for b := 0; b < beams; b++ {
		samples := in.f64[b*countPoints : (b+1)*countPoints]
		n := countPoints
		if n > nfft {
			n = nfft
		}
		for i := 0; i < n; i++ {
			work[i] = complex(samples[i], 0)
		}
		for i := n; i < nfft; i++ {
			work[i] = 0
		}
		coeffs := fft.Coefficients(nil, work)
		copy(out.c128[b*nfft:(b+1)*nfft], coeffs)
	}
	return nil
}

func runMagnitude(beams int, args []any) error {
	in, out, err := kernelArgs(KernelMagnitude, args, ElemComplex128, ElemFloat64)
	if err != nil {
		return err
	}
	nfft, err := intArg(KernelMagnitude, args, 2)
	if err != nil {
		return err
	}
	total := beams * nfft
	if in.len < total || out.len < total {
		return fmt.Errorf("%w: magnitude buffers too small for %d beams", ErrInvalidBuffer, beams)
	}
	for i := 0; i < total; i++ {
		out.f64[i] = cmplx.Abs(in.c128[i])
	}
	return nil
}

func runPeakSearch(beams int, args []any) error {
	in, out, err := kernelArgs(KernelPeakSearch, args, ElemFloat64, ElemFloat64)
	if err != nil {
		return err
	}
	nfft, err := intArg(KernelPeakSearch, args, 2)
	if err != nil {
		return err
	}
	if in.len < beams*nfft || out.len < beams {
		return fmt.Errorf("%w: peak_search buffers too small for %d beams", ErrInvalidBuffer, beams)
	}
	for b := 0; b < beams; b++ {
		spectrum := in.f64[b*nfft : (b+1)*nfft]
		best := 0
		for i, v := range spectrum {
			if v > spectrum[best] {
				best = i
			}
		}
		out.f64[b] = float64(best)
	}
	return nil
}
