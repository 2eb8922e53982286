// Package pipeline implements the per-item processing sequence: unpack the
// archive, decode its audio payloads, separate and remix them, and repack
// the result. Each stage delegates to an external tool client; the pipeline
// owns stage ordering, scratch space, and atomic publication of the output
// archive.
package pipeline
