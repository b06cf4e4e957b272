// Package corpus reads collections of named sequences and ranks them
// against a query.
//
// A corpus file holds several records. A line starting with the marker
// character begins a new record and the whole line is its name; the
// following lines up to the next marker are concatenated without their
// line breaks to form the record data:
//
//	@sample one
//	ACGTAC
//	GTTA
//	@sample two
//	TTGACA
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultMarker starts a record in a corpus file.
const DefaultMarker = '@'

// maxLine limits a single line of a corpus file.
const maxLine = 64 << 20

// Record is a named sequence.
type Record[T any] struct {
	Name string
	Data T
}

// Parse reads records from r in file order. Lines before the first marker
// line are ignored. Duplicate names are kept as separate records.
func Parse(r io.Reader, marker rune) ([]Record[string], error) {
	var (
		records []Record[string]
		current *strings.Builder
		name    string
	)
	flush := func() {
		if current != nil {
			records = append(records, Record[string]{Name: name, Data: current.String()})
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), maxLine)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.HasPrefix(line, string(marker)) {
			flush()
			name, current = line, &strings.Builder{}
			continue
		}
		if current != nil {
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	flush()
	return records, nil
}

// ReadFile parses the corpus file at path with the default marker.
func ReadFile(path string) ([]Record[string], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := Parse(f, DefaultMarker)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ScanDir loads every file under dir whose extension is in exts, or every
// file when exts is empty. Records are named by their path relative to dir
// and come in lexical order.
//
// Files that cannot be read or loaded are logged, returned in the error
// list and skipped.
func ScanDir[T any](dir string, exts []string, load func(path string) (T, error), log *zap.Logger) ([]Record[T], []error) {
	if log == nil {
		log = zap.NewNop()
	}

	var (
		records []Record[T]
		errs    []error
	)
	skip := func(path string, err error) {
		log.Warn("skipping corpus file", zap.String("path", path), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			skip(path, err)
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matchExt(path, exts) {
			return nil
		}

		data, err := load(path)
		if err != nil {
			skip(path, err)
			return nil
		}
		name, err := filepath.Rel(dir, path)
		if err != nil {
			name = path
		}
		records = append(records, Record[T]{Name: filepath.ToSlash(name), Data: data})
		log.Debug("loaded corpus file", zap.String("name", name))
		return nil
	})
	return records, errs
}

func matchExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}
