package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// File is one script: its base name and its text.
type File struct {
	Name string
	Text string
}

// ReadDir loads every *.sql file of dir, ordered by file name.
func ReadDir(dir string) ([]File, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("scripts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts directory: %s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list scripts in %s: %w", dir, err)
	}
	sort.Strings(paths)

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read script %s: %w", p, err)
		}
		files = append(files, File{Name: filepath.Base(p), Text: string(data)})
	}
	return files, nil
}

// WriteDir writes files into dir, creating it when missing.
func WriteDir(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
			return fmt.Errorf("write script %s: %w", path, err)
		}
	}
	return nil
}

// CountStatements returns the number of statements across files.
func CountStatements(files []File) int {
	n := 0
	for _, f := range files {
		for range Split(f.Text) {
			n++
		}
	}
	return n
}
