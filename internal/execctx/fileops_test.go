package execctx

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ws := t.TempDir()
	return New("", "", ws, nil, nil, nil, nil)
}

func TestWriteReadAppendFile(t *testing.T) {
	c := newTestContext(t)

	if err := c.WriteFile("out/report.txt", []byte("hello")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := c.ReadFile("out/report.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	if err := c.AppendFile("out/report.txt", []byte(" world")); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}
	got, _ = c.ReadFile("out/report.txt")
	if string(got) != "hello world" {
		t.Fatalf("got %q, want %q", got, "hello world")
	}
}

func TestCopyFile_RecursiveDirectory(t *testing.T) {
	c := newTestContext(t)
	if err := c.WriteFile("src/a.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteFile("src/nested/b.txt", []byte("b")); err != nil {
		t.Fatal(err)
	}

	if err := c.CopyFile("src", "dst", true); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := c.ReadFile("dst/nested/b.txt")
	if err != nil {
		t.Fatalf("ReadFile after copy: %v", err)
	}
	if string(got) != "b" {
		t.Fatalf("got %q, want %q", got, "b")
	}
}

func TestCopyFile_DirectoryWithoutRecursiveFails(t *testing.T) {
	c := newTestContext(t)
	if err := c.WriteFile("src/a.txt", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := c.CopyFile("src", "dst", false); err == nil {
		t.Fatal("expected an error copying a directory without recursive=true")
	}
}

func TestMoveFile(t *testing.T) {
	c := newTestContext(t)
	if err := c.WriteFile("a.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := c.MoveFile("a.txt", "b/a.txt"); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if c.Exists("a.txt") {
		t.Fatal("expected source to no longer exist")
	}
	if !c.Exists("b/a.txt") {
		t.Fatal("expected destination to exist")
	}
}

func TestDeleteFile(t *testing.T) {
	c := newTestContext(t)
	if err := c.WriteFile("a.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteFile("a.txt", false); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if c.Exists("a.txt") {
		t.Fatal("expected file to be deleted")
	}
}

func TestListDir(t *testing.T) {
	c := newTestContext(t)
	c.WriteFile("dir/a.txt", []byte("a"))
	c.WriteFile("dir/b.txt", []byte("b"))

	names, err := c.ListDir("dir")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 entries, got %v", names)
	}
}

func TestGlobFind(t *testing.T) {
	c := newTestContext(t)
	c.WriteFile("src/a.go", []byte("a"))
	c.WriteFile("src/nested/b.go", []byte("b"))
	c.WriteFile("src/c.txt", []byte("c"))

	matches, err := c.GlobFind("**/*.go")
	if err != nil {
		t.Fatalf("GlobFind: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 .go matches, got %v", matches)
	}
}

func TestSize_RecursiveForDirectory(t *testing.T) {
	c := newTestContext(t)
	c.WriteFile("dir/a.txt", []byte("aaa"))
	c.WriteFile("dir/b.txt", []byte("bb"))

	n, err := c.Size("dir")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 5 {
		t.Fatalf("got %d, want 5", n)
	}
}

func TestIsCI_DetectsIndicatorVariables(t *testing.T) {
	c := New("", "", "", map[string]string{"GITHUB_ACTIONS": "true"}, nil, nil, nil)
	if !c.IsCI() {
		t.Fatal("expected IsCI to be true when GITHUB_ACTIONS is set")
	}

	c2 := New("", "", "", map[string]string{}, nil, nil, nil)
	if c2.IsCI() {
		t.Fatal("expected IsCI to be false with no indicator variables set")
	}
}

func TestRequireEnv_MissingFails(t *testing.T) {
	c := New("", "", "", map[string]string{}, nil, nil, nil)
	if _, err := c.RequireEnv("MISSING"); err == nil {
		t.Fatal("expected an error for a missing required env var")
	}
}

func TestTempFile_RelativeToWorkspace(t *testing.T) {
	c := newTestContext(t)
	rel, err := c.TempFile("scratch-*.txt")
	if err != nil {
		t.Fatalf("TempFile: %v", err)
	}
	if filepath.IsAbs(rel) {
		t.Fatalf("expected a workspace-relative path, got %q", rel)
	}
	if _, err := os.Stat(filepath.Join(c.Workspace, rel)); err != nil {
		t.Fatalf("expected temp file to exist: %v", err)
	}
}
