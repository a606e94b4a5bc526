package artifacts

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// copyFileAtomic copies src to dst via a temp file in dst's directory, then
// renames into place, so a concurrent reader never observes a partial file.
func copyFileAtomic(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	t, err := renameio.TempFile("", dst)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, in); err != nil {
		return err
	}
	if err := t.Chmod(mode); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

// copyDirAtomic recursively copies src into dst. Each file is copied via
// copyFileAtomic; directory creation itself is not atomic (mkdir has no
// such primitive), matching the manifest's file-level atomicity guarantee.
func copyDirAtomic(src, dst string) error {
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
		return copyFileAtomic(path, target, info.Mode())
	})
}
