// Package audioconv converts game audio between formats by delegating to
// external tools: ffmpeg for ordinary decode/encode/mix work and the
// Wwise-adjacent pair ww2ogg/wav2wem for WEM payloads, with an optional
// revorb pass to rebuild OGG granule positions. All binaries and the
// ww2ogg codebooks file are configurable.
package audioconv
