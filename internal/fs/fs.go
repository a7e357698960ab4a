package fs

import (
	"fmt"
	"io/fs"
	"os"
)

// ReportPattern matches the report documents of a results directory.
const ReportPattern = "*.json"

type FS interface {
	fs.FS
	RootDir() string
}

var _ FS = (*rootDirFS)(nil)

func New(entry string) FS {
	return &rootDirFS{entry: entry, FS: os.DirFS(entry)}
}

type rootDirFS struct {
	fs.FS
	entry string
}

func (r rootDirFS) RootDir() string {
	return r.entry
}

// Reports returns the names of report documents at the top of fsys in
// lexical order.
func Reports(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, ReportPattern)
	if err != nil {
		return nil, fmt.Errorf("fs.Glob: %w", err)
	}

	reports := make([]string, 0, len(names))
	for _, name := range names {
		info, err := fs.Stat(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("fs.Stat: %w", err)
		}

		if info.IsDir() {
			continue
		}

		reports = append(reports, name)
	}

	return reports, nil
}
