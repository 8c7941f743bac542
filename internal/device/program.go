package device

import (
	"fmt"
	"path/filepath"

	"github.com/AlexLan73/GPUWorkLib-sub001/internal/fsutil"
)

// DefaultSearchPaths is the ordered candidate list for kernel source
// resolution: install location first, then build-tree relative paths.
func DefaultSearchPaths() []string {
	return []string{
		"/usr/local/share/gpuworklib/kernels",
		"kernels",
		filepath.Join("..", "kernels"),
	}
}

// SourceResolver locates kernel source files across an ordered search-path
// list. Resolution returns the first readable hit.
type SourceResolver struct {
	fs    fsutil.FileSystem
	paths []string
}

// NewSourceResolver creates a resolver over the given paths. A nil fs uses
// the real filesystem; empty paths use DefaultSearchPaths.
func NewSourceResolver(fs fsutil.FileSystem, paths []string) *SourceResolver {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if len(paths) == 0 {
		paths = DefaultSearchPaths()
	}
	return &SourceResolver{fs: fs, paths: paths}
}

// Resolve returns the contents of filename from the first search path that
// holds a readable copy. On total failure the error lists every attempted
// path for diagnosability.
func (r *SourceResolver) Resolve(filename string) (string, error) {
	attempted := make([]string, 0, len(r.paths))
	for _, dir := range r.paths {
		candidate := filepath.Join(dir, filename)
		attempted = append(attempted, candidate)
		data, err := r.fs.ReadFile(candidate)
		if err != nil {
			continue
		}
		return string(data), nil
	}
	return "", &SourceNotFoundError{Filename: filename, Attempted: attempted}
}

// ManagerState tracks the kernel manager through its lifecycle.
type ManagerState int

const (
	StateUninitialized ManagerState = iota
	StateSourceResolved
	StateBuilt
	StateReady
	StateReleased
)

// String returns the state label used in diagnostics.
func (s ManagerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSourceResolved:
		return "source-resolved"
	case StateBuilt:
		return "built"
	case StateReady:
		return "ready"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// KernelManager owns the compiled program and the fixed kernel set of one
// device context. Construction either fully succeeds (program and every
// named kernel live) or fully fails with everything partially created
// released again. Instances are not safe for concurrent state transitions;
// each engine owns its own manager.
type KernelManager struct {
	ctx     Context
	source  string
	program Program
	kernels map[string]Kernel
	state   ManagerState
}

// NewKernelManager creates a manager bound to the given context.
func NewKernelManager(ctx Context) *KernelManager {
	return &KernelManager{
		ctx:     ctx,
		kernels: make(map[string]Kernel),
		state:   StateUninitialized,
	}
}

// State reports the current lifecycle state.
func (m *KernelManager) State() ManagerState { return m.state }

// LoadSource resolves filename through the resolver and retains the source
// text for Build.
func (m *KernelManager) LoadSource(resolver *SourceResolver, filename string) error {
	if m.state == StateReleased {
		return ErrReleased
	}
	src, err := resolver.Resolve(filename)
	if err != nil {
		return err
	}
	m.source = src
	m.state = StateSourceResolved
	return nil
}

// Build compiles the resolved source. On failure no program handle is
// retained.
func (m *KernelManager) Build() error {
	if m.state != StateSourceResolved {
		return fmt.Errorf("device: build requires resolved source, state is %s", m.state)
	}
	program, err := m.ctx.BuildProgram(m.source)
	if err != nil {
		if _, ok := err.(*BuildFailedError); ok {
			return err
		}
		return &BuildFailedError{Err: err}
	}
	m.program = program
	m.state = StateBuilt
	return nil
}

// CreateKernels creates every kernel in names. If any single creation fails,
// every kernel created in this call plus the program are released before the
// failure is reported, so a partially valid kernel set can never leak to
// callers.
func (m *KernelManager) CreateKernels(names []string) error {
	if m.state != StateBuilt {
		return fmt.Errorf("device: kernel creation requires built program, state is %s", m.state)
	}
	created := make([]Kernel, 0, len(names))
	for _, name := range names {
		k, err := m.program.CreateKernel(name)
		if err != nil {
			for _, c := range created {
				_ = c.Release()
			}
			_ = m.program.Release()
			m.program = nil
			m.state = StateUninitialized
			return &KernelCreateError{Name: name, Err: err}
		}
		created = append(created, k)
	}
	for _, k := range created {
		m.kernels[k.Name()] = k
	}
	m.state = StateReady
	return nil
}

// Kernel returns the named kernel from the ready set.
func (m *KernelManager) Kernel(name string) (Kernel, error) {
	if m.state != StateReady {
		return nil, fmt.Errorf("device: kernel set not ready, state is %s", m.state)
	}
	k, ok := m.kernels[name]
	if !ok {
		return nil, fmt.Errorf("device: unknown kernel %q", name)
	}
	return k, nil
}

// ReleaseAll releases every held kernel and the program. It is idempotent:
// handles are nilled out so repeated calls are no-ops.
func (m *KernelManager) ReleaseAll() {
	for name, k := range m.kernels {
		_ = k.Release()
		delete(m.kernels, name)
	}
	if m.program != nil {
		_ = m.program.Release()
		m.program = nil
	}
	m.state = StateReleased
}
