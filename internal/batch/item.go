package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ArchiveExtension is the file extension discovery matches on.
const ArchiveExtension = ".psarc"

// Item is one unit of work: a single input archive and its derived output
// path. Items are created at discovery time and immutable afterwards.
type Item struct {
	// Index is the item's position in discovery order.
	Index int
	// Path is the input archive.
	Path string
	// OutputPath is where the transformed archive will be published,
	// always the input's base name under the output directory.
	OutputPath string
	// Title is a human-readable name derived from the file name, used in
	// logs and notifications.
	Title string
}

// Discover resolves inputPath into the ordered list of work items. A file
// input yields exactly one item and must carry the archive extension; a
// directory input yields one item per archive directly inside it, or in the
// whole subtree when recursive is set. Order is lexical by path so reports
// are reproducible. An unusable input path aborts discovery entirely.
func Discover(inputPath, outputDir string, recursive bool) ([]Item, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory required")
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input path does not exist: %s", inputPath)
		}
		return nil, fmt.Errorf("inspect input path: %w", err)
	}

	var paths []string
	switch {
	case info.IsDir():
		paths, err = findArchives(inputPath, recursive)
		if err != nil {
			return nil, err
		}
	default:
		if !strings.EqualFold(filepath.Ext(inputPath), ArchiveExtension) {
			return nil, fmt.Errorf("input %s is not a %s archive", inputPath, ArchiveExtension)
		}
		paths = []string{inputPath}
	}

	sort.Strings(paths)

	if err := rejectDuplicateOutputs(paths); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(paths))
	for i, path := range paths {
		items = append(items, Item{
			Index:      i,
			Path:       path,
			OutputPath: filepath.Join(outputDir, filepath.Base(path)),
			Title:      deriveTitle(path),
		})
	}
	return items, nil
}

func findArchives(dir string, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		var paths []string
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ArchiveExtension) {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
		return paths, nil
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ArchiveExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}
	return paths, nil
}

// rejectDuplicateOutputs catches recursive inputs whose base names collide:
// both would publish to the same output path, so one would silently
// overwrite the other mid-run.
func rejectDuplicateOutputs(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		if prior, ok := seen[base]; ok {
			return fmt.Errorf("inputs %s and %s map to the same output file %s", prior, path, base)
		}
		seen[base] = path
	}
	return nil
}

// deriveTitle turns an archive file name into a display title. Archives
// commonly carry a trailing "_p" platform marker, which is dropped.
func deriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Unknown Archive"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, "_p")
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		title = "Unknown Archive"
	}
	return cases.Title(language.Und).String(title)
}
