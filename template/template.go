// Package template renders a project tree in place.
package template

import (
	"bytes"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/cbroglie/mustache"

	"github.com/santiagomed/mindful/fs"
)

// sniffLen is how much of a file is inspected to decide whether it is binary.
const sniffLen = 8000

// RenderDirectory substitutes vars into every text file under dir and writes the
// result back. Binary files are left untouched.
func RenderDirectory(fsys *fs.FileSystem, dir string, vars map[string]interface{}) error {
	files, err := fsys.ListFiles(dir)
	if err != nil {
		return err
	}

	for _, rel := range files {
		path := filepath.Join(dir, rel)
		data, err := fsys.ReadFile(path)
		if err != nil {
			return err
		}
		if IsBinary(data) {
			continue
		}

		rendered, err := Render(string(data), vars)
		if err != nil {
			return fmt.Errorf("error rendering %s: %w", rel, err)
		}
		if rendered == string(data) {
			continue
		}
		if err := fsys.WriteFile(path, rendered); err != nil {
			return err
		}
	}
	return nil
}

// Render substitutes vars into a single template. Missing variables render empty.
func Render(tmpl string, vars map[string]interface{}) (string, error) {
	return mustache.Render(tmpl, vars)
}

// IsBinary reports whether data looks like a binary file: a NUL byte or invalid
// UTF-8 within the first sniffLen bytes. A multi-byte rune cut off by the sniff
// window does not count as invalid.
func IsBinary(data []byte) bool {
	sample := data
	truncated := false
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
		truncated = true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	for len(sample) > 0 {
		r, size := utf8.DecodeRune(sample)
		if r == utf8.RuneError && size == 1 {
			return !(truncated && !utf8.FullRune(sample))
		}
		sample = sample[size:]
	}
	return false
}
