package fs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content.
// Missing parent directories are created.
func (fs *FileSystem) WriteFile(path string, content string) error {
	if err := fs.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", path, err)
	}
	err := afero.WriteFile(fs.Fs, path, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", path, err)
	}
	return data, nil
}

func (fs *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(fs.Fs, path)
	return err == nil && ok
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CopyFile copies a file from src to dst, keeping its mode.
func (fs *FileSystem) CopyFile(src, dst string) error {
	info, err := fs.Fs.Stat(src)
	if err != nil {
		return fmt.Errorf("error reading source file: %w", err)
	}

	sourceFile, err := fs.Fs.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %w", err)
	}
	defer sourceFile.Close()

	if err := fs.Fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("error creating destination directory: %w", err)
	}

	dstFile, err := fs.Fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("error creating destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, sourceFile); err != nil {
		return fmt.Errorf("error copying file: %w", err)
	}
	return nil
}

// CopyDir recursively copies a directory tree. Symlinks are recreated with the
// same target, which needs a file system that supports them.
func (fs *FileSystem) CopyDir(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	si, err := fs.Fs.Stat(src)
	if err != nil {
		return err
	}
	if !si.IsDir() {
		return fmt.Errorf("source %s is not a directory", src)
	}

	return afero.Walk(fs.Fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return fs.Fs.MkdirAll(target, info.Mode().Perm()|0700)
		case info.Mode()&os.ModeSymlink != 0:
			return fs.copySymlink(path, target)
		default:
			return fs.CopyFile(path, target)
		}
	})
}

func (fs *FileSystem) copySymlink(src, dst string) error {
	linker, ok := fs.Fs.(afero.Symlinker)
	if !ok {
		return fmt.Errorf("cannot copy symlink %s: file system does not support symlinks", src)
	}
	link, err := linker.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return linker.SymlinkIfPossible(link, dst)
}

// Move moves a file or directory tree to another location.
func (fs *FileSystem) Move(src, dst string) error {
	if !fs.IsDir(src) {
		if err := fs.CopyFile(src, dst); err != nil {
			return err
		}
		return fs.Fs.Remove(src)
	}
	if err := fs.CopyDir(src, dst); err != nil {
		return fmt.Errorf("error copying directory contents: %w", err)
	}
	if err := fs.Fs.RemoveAll(src); err != nil {
		return fmt.Errorf("error removing source directory: %w", err)
	}
	return nil
}

// ListFiles returns the paths of all regular files under root, relative to root
// and sorted.
func (fs *FileSystem) ListFiles(root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ExtendDotEnv merges vars into the .env file at path, creating it when missing.
// Existing keys are overwritten; the file is rewritten sorted by key.
func (fs *FileSystem) ExtendDotEnv(path string, vars map[string]string) error {
	current := map[string]string{}
	if fs.Exists(path) {
		data, err := fs.ReadFile(path)
		if err != nil {
			return err
		}
		current, err = godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	for k, v := range vars {
		current[k] = v
	}

	content, err := godotenv.Marshal(current)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return fs.WriteFile(path, content+"\n")
}
