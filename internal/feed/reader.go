package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Reader ingests scraper drop files from a directory. Each file holds one
// JSON object per line in the RawRecord shape.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// ReadBatch parses every pending *.jsonl drop file and returns the usable
// records along with the names of the files they came from. Rows that fail
// to normalize are logged and skipped rather than failing the batch.
func (r *Reader) ReadBatch() ([]Record, []string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading drop dir: %w", err)
	}

	var records []Record
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		recs, err := r.readFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			slog.Warn("skipping drop file", "file", e.Name(), "error", err)
			continue
		}
		records = append(records, recs...)
		files = append(files, e.Name())
	}
	return records, files, nil
}

// Archive moves consumed drop files into a processed/ subdirectory so the
// next cycle does not ingest them again.
func (r *Reader) Archive(names []string) error {
	if len(names) == 0 {
		return nil
	}
	dest := filepath.Join(r.dir, "processed")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}
	for _, name := range names {
		if err := os.Rename(filepath.Join(r.dir, name), filepath.Join(dest, name)); err != nil {
			return fmt.Errorf("archiving %s: %w", name, err)
		}
	}
	return nil
}

func (r *Reader) readFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var raw RawRecord
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			slog.Warn("malformed feed line", "file", filepath.Base(path), "line", line, "error", err)
			continue
		}
		rec, err := Normalize(raw)
		if err != nil {
			slog.Warn("unusable feed row", "file", filepath.Base(path), "line", line, "error", err)
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return out, nil
}
