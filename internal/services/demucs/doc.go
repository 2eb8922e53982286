// Package demucs wraps the demucs command-line source separator.
//
// A separation run writes one WAV per stem under <out>/<model>/<track>/ and
// reports tqdm-style progress on stderr, which the client parses into typed
// updates. Failures are classified so callers can tell an unusable compute
// device or a missing model apart from ordinary tool errors. Passing device
// "auto" (or leaving it empty) omits the --device flag, letting the tool
// pick an accelerator when one is present.
package demucs
