// Package jsonl reads and writes newline-delimited JSON files. Writes are
// atomic: records go to a temp file in the target directory, which is
// synced and then renamed over the destination.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// maxLine bounds a single record.
const maxLine = 16 << 20

// Read returns each non-empty line of path that is valid JSON, along with
// the 1-based numbers of the lines it skipped as malformed.
func Read(path string) ([]json.RawMessage, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, skipped, err := Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// Decode is Read over an arbitrary reader.
func Decode(r io.Reader) ([]json.RawMessage, []int, error) {
	var (
		records []json.RawMessage
		skipped []int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			skipped = append(skipped, n)
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return records, skipped, nil
}

// Write atomically replaces path with one line per value, each encoded
// with encoding/json.
func Write[T any](path string, values []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return fail("writing record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
