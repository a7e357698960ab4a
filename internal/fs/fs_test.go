package fs

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestReports(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"b.json":         {Data: []byte("[]")},
		"a.json":         {Data: []byte("[]")},
		"notes.txt":      {Data: []byte("x")},
		"nested/c.json":  {Data: []byte("[]")},
		"archive.json/x": {Data: []byte("[]")},
	}

	got, err := Reports(fsys)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a.json", "b.json"}, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "run.json"), []byte("[]"), 0o600); err != nil {
		t.Fatal(err)
	}

	fsys := New(dir)
	if fsys.RootDir() != dir {
		t.Errorf("got: %q, want: %q", fsys.RootDir(), dir)
	}

	got, err := Reports(fsys)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"run.json"}, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}
