package fsutil

import (
	"errors"
	"io/fs"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	osfs := OSFileSystem{}

	if !osfs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if osfs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	osfs := OSFileSystem{}

	data, err := osfs.ReadFile("filesystem.go")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty file content")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("__kernel void fft_forward() {}")
	mfs.WriteFile("/opt/kernels/search3.cl", testData, 0644)

	got, err := mfs.ReadFile("/opt/kernels/search3.cl")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(testData) {
		t.Errorf("ReadFile = %q, want %q", got, testData)
	}

	// Returned slice must be a copy, not a view of internal state.
	got[0] = 'X'
	again, err := mfs.ReadFile("/opt/kernels/search3.cl")
	if err != nil {
		t.Fatalf("second ReadFile failed: %v", err)
	}
	if string(again) != string(testData) {
		t.Error("ReadFile returned a mutable view of internal data")
	}
}

func TestMemoryFileSystem_MissingFile(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/no/such/file.cl"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
	if _, err := mfs.Stat("/no/such/file.cl"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want fs.ErrNotExist", err)
	}
	if mfs.Exists("/no/such/file.cl") {
		t.Error("Exists reported a missing file")
	}
}

func TestMemoryFileSystem_Stat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("kernels/search3.cl", []byte("abc"), 0600)

	info, err := mfs.Stat("kernels/search3.cl")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "search3.cl" {
		t.Errorf("Name = %q, want %q", info.Name(), "search3.cl")
	}
	if info.Size() != 3 {
		t.Errorf("Size = %d, want 3", info.Size())
	}
	if info.IsDir() {
		t.Error("IsDir = true for a regular file")
	}
}
