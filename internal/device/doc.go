// Package device abstracts the compute backend used by the beam search
// pipeline.
//
// It defines the backend, context, queue, buffer, program, and kernel
// interfaces, the memory-flag enumeration fixed at buffer creation, and a
// kernel lifecycle manager that resolves source across a search-path list,
// builds the program, and creates the fixed kernel set atomically. A
// CPU-backed mock backend makes the whole pipeline executable without a GPU.
package device
