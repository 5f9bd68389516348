package patch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const simpleUpdate = `*** Begin Patch
*** Update File: test.py
@@ -1,3 +1,3 @@
a
-b
+c
*** End Patch`

func TestFindContext(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	start, end, err := findContext(lines, []string{"b", "c"}, 0, false)
	if err != nil {
		t.Fatalf("findContext failed: %v", err)
	}
	if start != 1 || end != 3 {
		t.Errorf("got (%d, %d), want (1, 3)", start, end)
	}

	// EOF tolerance for the final context line.
	start, end, err = findContext(lines, []string{"d", "e"}, 0, true)
	if err != nil {
		t.Fatalf("findContext with eof failed: %v", err)
	}
	if start != 3 || end != 5 {
		t.Errorf("got (%d, %d), want (3, 5)", start, end)
	}

	if _, _, err := findContext(lines, []string{"x", "y"}, 0, false); !errors.Is(err, ErrInvalidPatch) {
		t.Errorf("expected ErrInvalidPatch for missing context, got %v", err)
	}
}

func TestFilesNeededAndAdded(t *testing.T) {
	text := `*** Begin Patch
*** Update File: test1.py
@@ -1,3 +1,3 @@
a
-b
+c
*** Delete File: test2.py
*** Add File: test3.py
new content
*** End Patch`

	needed := FilesNeeded(text)
	if diff := cmp.Diff([]string{"test1.py", "test2.py"}, needed); diff != "" {
		t.Errorf("FilesNeeded mismatch (-want +got):\n%s", diff)
	}

	added := FilesAdded(text)
	if diff := cmp.Diff([]string{"test3.py"}, added); diff != "" {
		t.Errorf("FilesAdded mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUpdate(t *testing.T) {
	orig := map[string]string{"test.py": "a\nb\nc\n"}
	p, err := Parse(simpleUpdate, orig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	action := p.Actions["test.py"]
	if action == nil {
		t.Fatal("no action for test.py")
	}
	if action.Type != ActionUpdate {
		t.Errorf("type = %s, want update", action.Type)
	}
	if len(action.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(action.Chunks))
	}
	if diff := cmp.Diff([]string{"a", "b"}, action.Chunks[0].DelLines); diff != "" {
		t.Errorf("DelLines mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, action.Chunks[0].InsLines); diff != "" {
		t.Errorf("InsLines mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		orig map[string]string
	}{
		{
			name: "missing header",
			text: "*** Update File: x\n*** End Patch",
			orig: map[string]string{},
		},
		{
			name: "update missing file",
			text: "*** Begin Patch\n*** Update File: nope.go\n@@\n-a\n+b\n*** End Patch",
			orig: map[string]string{},
		},
		{
			name: "delete missing file",
			text: "*** Begin Patch\n*** Delete File: nope.go\n*** End Patch",
			orig: map[string]string{},
		},
		{
			name: "duplicate path",
			text: "*** Begin Patch\n*** Delete File: a.go\n*** Delete File: a.go\n*** End Patch",
			orig: map[string]string{"a.go": "x\n"},
		},
		{
			name: "garbage line",
			text: "*** Begin Patch\nwhat is this\n*** End Patch",
			orig: map[string]string{},
		},
		{
			name: "update body without hunk header",
			text: "*** Begin Patch\n*** Update File: a.go\n-a\n+b\n*** End Patch",
			orig: map[string]string{"a.go": "a\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text, tt.orig); !errors.Is(err, ErrInvalidPatch) {
				t.Errorf("expected ErrInvalidPatch, got %v", err)
			}
		})
	}
}

func TestToCommitUpdate(t *testing.T) {
	orig := map[string]string{"test.py": "a\nb\nc\n"}
	p, err := Parse(simpleUpdate, orig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	commit, err := p.ToCommit(orig)
	if err != nil {
		t.Fatalf("ToCommit failed: %v", err)
	}

	change := commit.Changes["test.py"]
	if change.Type != ActionUpdate {
		t.Errorf("type = %s, want update", change.Type)
	}
	if change.OldContent != "a\nb\nc\n" {
		t.Errorf("old content = %q", change.OldContent)
	}
	if change.NewContent != "a\nc\nc\n" {
		t.Errorf("new content = %q, want %q", change.NewContent, "a\nc\nc\n")
	}
}

func TestToCommitPreservesMissingTrailingNewline(t *testing.T) {
	orig := map[string]string{"test.py": "a\nb\nc"}
	p, err := Parse(simpleUpdate, orig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	commit, err := p.ToCommit(orig)
	if err != nil {
		t.Fatalf("ToCommit failed: %v", err)
	}
	if got := commit.Changes["test.py"].NewContent; got != "a\nc\nc" {
		t.Errorf("new content = %q, want %q", got, "a\nc\nc")
	}
}

func TestMultipleChunks(t *testing.T) {
	text := `*** Begin Patch
*** Update File: f.txt
@@
one
-two
+TWO
@@
four
-five
+FIVE
*** End Patch`

	orig := map[string]string{"f.txt": "one\ntwo\nthree\nfour\nfive\n"}
	p, err := Parse(text, orig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	commit, err := p.ToCommit(orig)
	if err != nil {
		t.Fatalf("ToCommit failed: %v", err)
	}
	want := "one\nTWO\nthree\nfour\nFIVE\n"
	if got := commit.Changes["f.txt"].NewContent; got != want {
		t.Errorf("new content = %q, want %q", got, want)
	}
}

// memFS is an in-memory FileSystem for Process tests.
type memFS map[string]string

func (m memFS) ReadFile(path string) (string, error) {
	content, ok := m[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return content, nil
}

func (m memFS) WriteFile(path, content string) error {
	m[path] = content
	return nil
}

func (m memFS) Remove(path string) error {
	delete(m, path)
	return nil
}

func TestProcessUpdate(t *testing.T) {
	fs := memFS{"test.py": "a\nb\nc\n"}

	summary, err := Process(simpleUpdate, fs)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary != "M test.py" {
		t.Errorf("summary = %q, want %q", summary, "M test.py")
	}
	if fs["test.py"] != "a\nc\nc\n" {
		t.Errorf("content = %q, want %q", fs["test.py"], "a\nc\nc\n")
	}
}

func TestProcessAddDeleteMove(t *testing.T) {
	fs := memFS{
		"old.go":    "package old\n",
		"rename.go": "package rename\n",
	}

	text := `*** Begin Patch
*** Add File: fresh.go
package fresh
*** Delete File: old.go
*** Update File: rename.go
*** Move to: renamed.go
@@
-package rename
+package renamed
*** End Patch`

	summary, err := Process(text, fs)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if fs["fresh.go"] != "package fresh\n" {
		t.Errorf("added content = %q", fs["fresh.go"])
	}
	if _, ok := fs["old.go"]; ok {
		t.Error("old.go should be deleted")
	}
	if _, ok := fs["rename.go"]; ok {
		t.Error("rename.go should be gone after move")
	}
	if fs["renamed.go"] != "package renamed\n" {
		t.Errorf("moved content = %q", fs["renamed.go"])
	}
	want := "A fresh.go\nD old.go\nM rename.go -> renamed.go"
	if summary != want {
		t.Errorf("summary = %q, want %q", summary, want)
	}
}

func TestProcessAddFilePlusPrefixed(t *testing.T) {
	fs := memFS{}

	text := `*** Begin Patch
*** Add File: a.txt
+hello
+world
*** End Patch`

	if _, err := Process(text, fs); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if fs["a.txt"] != "hello\nworld\n" {
		t.Errorf("added content = %q, want plus prefixes stripped", fs["a.txt"])
	}
}

func TestProcessDoesNotWriteOnParseFailure(t *testing.T) {
	fs := memFS{"a.txt": "keep\n"}

	text := `*** Begin Patch
*** Update File: a.txt
@@
-missing context
+whatever
*** End Patch`

	if _, err := Process(text, fs); !errors.Is(err, ErrInvalidPatch) {
		t.Fatalf("expected ErrInvalidPatch, got %v", err)
	}
	if fs["a.txt"] != "keep\n" {
		t.Error("file must be untouched after failed patch")
	}
}

func TestProcessWithRealFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.py")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Process(simpleUpdate, OSFileSystem(dir)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a\nc\nc\n" {
		t.Errorf("content = %q, want %q", data, "a\nc\nc\n")
	}
}

func TestResolvePreviewDoesNotWrite(t *testing.T) {
	fs := memFS{"test.py": "a\nb\nc\n"}

	commit, err := Resolve(simpleUpdate, fs)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if commit.Changes["test.py"].NewContent != "a\nc\nc\n" {
		t.Errorf("resolved content = %q", commit.Changes["test.py"].NewContent)
	}
	if fs["test.py"] != "a\nb\nc\n" {
		t.Error("Resolve must not modify files")
	}
}
