package execctx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ReadFile reads path, resolved against Workspace unless absolute.
func (c *Context) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(c.resolve(path))
}

// WriteFile writes data to path (resolved against Workspace), creating
// parent directories as needed.
func (c *Context) WriteFile(path string, data []byte) error {
	full := c.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return os.WriteFile(full, data, 0o644)
}

// AppendFile appends data to path (resolved against Workspace), creating it
// (and parent directories) if necessary.
func (c *Context) AppendFile(path string, data []byte) error {
	full := c.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("append %q: %w", path, err)
	}
	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append %q: %w", path, err)
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// CopyFile copies src to dst (both resolved against Workspace). If
// recursive is true and src is a directory, it is copied recursively.
func (c *Context) CopyFile(src, dst string, recursive bool) error {
	s := c.resolve(src)
	d := c.resolve(dst)
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("copy %q: %w", src, err)
	}
	if info.IsDir() {
		if !recursive {
			return fmt.Errorf("copy %q: is a directory, recursive not requested", src)
		}
		return copyDir(s, d)
	}
	return copyFile(s, d, info.Mode())
}

// MoveFile renames src to dst (both resolved against Workspace), falling
// back to copy+delete across filesystem boundaries.
func (c *Context) MoveFile(src, dst string) error {
	s := c.resolve(src)
	d := c.resolve(dst)
	if err := os.MkdirAll(filepath.Dir(d), 0o755); err != nil {
		return fmt.Errorf("move %q: %w", src, err)
	}
	if err := os.Rename(s, d); err == nil {
		return nil
	}
	if err := c.CopyFile(src, dst, true); err != nil {
		return err
	}
	return os.RemoveAll(s)
}

// DeleteFile removes path (resolved against Workspace). If recursive is
// true, directories are removed with their contents.
func (c *Context) DeleteFile(path string, recursive bool) error {
	full := c.resolve(path)
	if recursive {
		return os.RemoveAll(full)
	}
	return os.Remove(full)
}

// ListDir returns the entry names directly under path (resolved against
// Workspace).
func (c *Context) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(c.resolve(path))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// GlobFind returns workspace-relative paths matching a doublestar glob
// pattern (supports "**" for recursive matching), rooted at Workspace.
func (c *Context) GlobFind(pattern string) ([]string, error) {
	fsys := os.DirFS(c.Workspace)
	return doublestar.Glob(fsys, pattern)
}

// Exists reports whether path (resolved against Workspace) exists.
func (c *Context) Exists(path string) bool {
	_, err := os.Stat(c.resolve(path))
	return err == nil
}

// Size returns the size in bytes of path (resolved against Workspace). For
// a directory, it is the recursive sum of file sizes.
func (c *Context) Size(path string) (int64, error) {
	full := c.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.Walk(full, func(_ string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			total += fi.Size()
		}
		return nil
	})
	return total, err
}

// TempFile creates a new temporary file under Workspace (or the OS temp
// directory if Workspace is empty) with the given name pattern, and returns
// its workspace-relative path. The file is closed before returning; the
// caller is responsible for removing it.
func (c *Context) TempFile(pattern string) (string, error) {
	dir := c.Workspace
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	if c.Workspace == "" {
		return name, nil
	}
	rel, err := filepath.Rel(c.Workspace, name)
	if err != nil {
		return name, nil
	}
	return rel, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}
