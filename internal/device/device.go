package device

// BackendInfo describes a backend implementation.
type BackendInfo struct {
	Name        string
	Version     string
	Description string
}

// DeviceInfo describes one compute device.
type DeviceInfo struct {
	Name        string
	Vendor      string
	Driver      string
	MemoryBytes int64
}

// MemFlag declares the intended access pattern of a buffer. It is fixed at
// buffer creation; the backend may reject kernel invocations whose argument
// usage contradicts the declared flag.
type MemFlag uint8

const (
	// MemReadOnly marks buffers kernels only read (inputs, constants).
	MemReadOnly MemFlag = iota
	// MemWriteOnly marks buffers kernels only write (outputs).
	MemWriteOnly
	// MemReadWrite marks buffers used as accumulators or intermediates.
	MemReadWrite
)

// String returns the flag label used in diagnostics.
func (f MemFlag) String() string {
	switch f {
	case MemReadOnly:
		return "read-only"
	case MemWriteOnly:
		return "write-only"
	case MemReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ElemKind describes the element type held by a buffer.
type ElemKind uint8

const (
	ElemFloat64 ElemKind = iota
	ElemComplex128
)

// Bytes returns the size of one element of this kind.
func (k ElemKind) Bytes() int64 {
	switch k {
	case ElemComplex128:
		return 16
	default:
		return 8
	}
}

// Backend is implemented by compute backends (OpenCL, CUDA, the CPU mock).
// It is responsible for device discovery and context creation.
type Backend interface {
	Info() BackendInfo
	Available() bool
	Devices() ([]DeviceInfo, error)
	NewContext(deviceIndex int) (Context, error)
}

// Context is a backend-specific compute context tied to one device.
type Context interface {
	Device() DeviceInfo
	// NewBuffer allocates a device buffer of elemCount elements. The memory
	// flag is fixed for the lifetime of the buffer.
	NewBuffer(elemCount int, kind ElemKind, flag MemFlag) (Buffer, error)
	// NewQueue creates an execution queue.
	NewQueue() (Queue, error)
	// BuildProgram compiles kernel source for this device.
	BuildProgram(source string) (Program, error)
	Close() error
}

// Buffer is a device buffer.
type Buffer interface {
	Len() int
	Kind() ElemKind
	Flag() MemFlag
	// Upload copies from host to device. src must be a []float64 or
	// []complex128 matching the buffer kind and length.
	Upload(src any) error
	// Download copies from device to host. dst follows the same contract.
	Download(dst any) error
	Release() error
}

// Queue is an execution queue.
type Queue interface {
	// EnqueueKernel schedules one kernel invocation over globalSize work
	// items. Args are buffers and scalar parameters in kernel-argument order.
	EnqueueKernel(k Kernel, globalSize int, args ...any) error
	Synchronize() error
	Close() error
}

// Program is a compiled kernel program.
type Program interface {
	CreateKernel(name string) (Kernel, error)
	Release() error
}

// Kernel is one named unit of compute logic within a program.
type Kernel interface {
	Name() string
	Release() error
}

// Kernel names of the beam search program. The lifecycle manager creates
// exactly this set; a backend program missing any of them is unusable.
const (
	KernelFFTForward = "fft_forward"
	KernelMagnitude  = "magnitude"
	KernelPeakSearch = "peak_search"
)

// StandardKernelNames returns the fixed kernel set in creation order.
func StandardKernelNames() []string {
	return []string{KernelFFTForward, KernelMagnitude, KernelPeakSearch}
}
