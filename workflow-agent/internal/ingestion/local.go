package ingestion

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// LoadLocalFiles returns every regular file under root that ExtractText
// supports, in lexical order. Hidden directories are not entered.
func LoadLocalFiles(root string) ([]string, error) {
	var files []string
	walk := func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir() && path != root && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		case d.Type().IsRegular() && Supported(path):
			files = append(files, path)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walk); err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}
