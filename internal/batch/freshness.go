package batch

import "os"

// UpToDate reports whether a valid output already exists for the item: the
// output file is present, non-empty, and at least as new as the input. Any
// probe error counts as stale so the item is reprocessed rather than
// silently skipped.
func UpToDate(item Item) bool {
	out, err := os.Stat(item.OutputPath)
	if err != nil || out.IsDir() || out.Size() == 0 {
		return false
	}
	in, err := os.Stat(item.Path)
	if err != nil {
		return false
	}
	return !out.ModTime().Before(in.ModTime())
}
