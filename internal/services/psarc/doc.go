// Package psarc wraps the external psarc archive tool used to unpack and
// repack Rocksmith song archives.
//
// The binary is configurable and must honour two subcommands:
// "unpack --input ARCHIVE --output DIR" and
// "pack --input DIR --output ARCHIVE". Tests swap the command constructor
// to avoid invoking a real tool.
package psarc
