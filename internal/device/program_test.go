package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexLan73/GPUWorkLib-sub001/internal/fsutil"
)

const testSource = `__kernel void fft_forward() {}
__kernel void magnitude() {}
__kernel void peak_search() {}
`

func seededResolver(t *testing.T) *SourceResolver {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("kernels/search3fft.cl", []byte(testSource), 0644)
	return NewSourceResolver(mfs, []string{"missing", "kernels"})
}

func readyManager(t *testing.T, backend *MockBackend) (*KernelManager, Context) {
	t.Helper()
	ctx, err := backend.NewContext(0)
	require.NoError(t, err)

	mgr := NewKernelManager(ctx)
	require.NoError(t, mgr.LoadSource(seededResolver(t), "search3fft.cl"))
	require.NoError(t, mgr.Build())
	require.NoError(t, mgr.CreateKernels(StandardKernelNames()))
	return mgr, ctx
}

func TestSourceResolverFirstHitWins(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("install/search3fft.cl", []byte("install copy"), 0644)
	mfs.WriteFile("build/search3fft.cl", []byte("build copy"), 0644)

	resolver := NewSourceResolver(mfs, []string{"install", "build"})
	src, err := resolver.Resolve("search3fft.cl")
	require.NoError(t, err)
	assert.Equal(t, "install copy", src)
}

func TestSourceResolverReportsAttemptedPaths(t *testing.T) {
	resolver := NewSourceResolver(fsutil.NewMemoryFileSystem(), []string{"/opt/a", "b", "../c"})

	_, err := resolver.Resolve("search3fft.cl")
	require.Error(t, err)

	var notFound *SourceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "search3fft.cl", notFound.Filename)
	assert.Equal(t, []string{"/opt/a/search3fft.cl", "b/search3fft.cl", "../c/search3fft.cl"}, notFound.Attempted)
	assert.Contains(t, err.Error(), "/opt/a/search3fft.cl")
}

func TestKernelManagerLifecycle(t *testing.T) {
	backend := NewMockBackend()
	mgr, ctx := readyManager(t, backend)
	defer ctx.Close()

	assert.Equal(t, StateReady, mgr.State())
	assert.Equal(t, 1, backend.LivePrograms())
	assert.Equal(t, 3, backend.LiveKernels())

	k, err := mgr.Kernel(KernelMagnitude)
	require.NoError(t, err)
	assert.Equal(t, KernelMagnitude, k.Name())

	_, err = mgr.Kernel("transpose")
	assert.Error(t, err)

	mgr.ReleaseAll()
	assert.Equal(t, StateReleased, mgr.State())
	assert.Equal(t, 0, backend.LivePrograms())
	assert.Equal(t, 0, backend.LiveKernels())

	// Idempotent: a second release must not panic or double-decrement.
	mgr.ReleaseAll()
	assert.Equal(t, 0, backend.LivePrograms())
	assert.Equal(t, 0, backend.LiveKernels())
}

func TestKernelManagerBuildFailureHoldsNothing(t *testing.T) {
	backend := NewMockBackend()
	backend.FailBuild = errors.New("ptx assembler fault")
	ctx, err := backend.NewContext(0)
	require.NoError(t, err)
	defer ctx.Close()

	mgr := NewKernelManager(ctx)
	require.NoError(t, mgr.LoadSource(seededResolver(t), "search3fft.cl"))

	err = mgr.Build()
	require.Error(t, err)

	var buildErr *BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	assert.ErrorIs(t, err, backend.FailBuild)
	assert.Equal(t, StateSourceResolved, mgr.State())
	assert.Equal(t, 0, backend.LivePrograms())
}

func TestKernelManagerAllOrNothingCreation(t *testing.T) {
	// Force each position of the fixed set to fail in turn; in every case
	// no kernel and no program handle may remain held afterwards.
	for _, failing := range StandardKernelNames() {
		t.Run(failing, func(t *testing.T) {
			backend := NewMockBackend()
			backend.FailKernelName = failing
			ctx, err := backend.NewContext(0)
			require.NoError(t, err)
			defer ctx.Close()

			mgr := NewKernelManager(ctx)
			require.NoError(t, mgr.LoadSource(seededResolver(t), "search3fft.cl"))
			require.NoError(t, mgr.Build())

			err = mgr.CreateKernels(StandardKernelNames())
			require.Error(t, err)

			var createErr *KernelCreateError
			require.ErrorAs(t, err, &createErr)
			assert.Equal(t, failing, createErr.Name)

			assert.Equal(t, 0, backend.LiveKernels(), "kernel handles leaked")
			assert.Equal(t, 0, backend.LivePrograms(), "program handle leaked")
			assert.Equal(t, StateUninitialized, mgr.State())
		})
	}
}

func TestKernelManagerStateGuards(t *testing.T) {
	backend := NewMockBackend()
	ctx, err := backend.NewContext(0)
	require.NoError(t, err)
	defer ctx.Close()

	mgr := NewKernelManager(ctx)
	assert.Error(t, mgr.Build(), "build without resolved source")
	assert.Error(t, mgr.CreateKernels(StandardKernelNames()), "create without build")

	mgr.ReleaseAll()
	assert.ErrorIs(t, mgr.LoadSource(seededResolver(t), "search3fft.cl"), ErrReleased)
}
