// Package corpus reads and watches a directory of plain-text documents.
// The filename stem is the document id: data/bills/hr1234.txt is "hr1234".
package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads .txt documents from a corpus directory.
type Loader struct {
	dir string
}

// NewLoader returns a Loader for dir. The directory must exist.
func NewLoader(dir string) (*Loader, error) {
	if dir == "" {
		return nil, fmt.Errorf("corpus directory is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %q is not a directory", dir)
	}

	return &Loader{dir: dir}, nil
}

// Dir returns the corpus directory.
func (l *Loader) Dir() string { return l.dir }

// LoadAll reads every .txt file in the corpus directory, keyed by document id.
func (l *Loader) LoadAll() (map[string]string, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("listing corpus directory %q: %w", l.dir, err)
	}

	docs := make(map[string]string, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading document %q: %w", path, err)
		}
		docs[DocumentID(path)] = string(data)
	}

	return docs, nil
}

// Load reads one document by id.
func (l *Loader) Load(id string) (string, error) {
	data, err := os.ReadFile(l.path(id))
	if err != nil {
		return "", fmt.Errorf("reading document %q: %w", id, err)
	}
	return string(data), nil
}

// Store writes one document by id, creating or overwriting its file.
func (l *Loader) Store(id string, text string) error {
	if err := os.WriteFile(l.path(id), []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing document %q: %w", id, err)
	}
	return nil
}

func (l *Loader) path(id string) string {
	return filepath.Join(l.dir, id+".txt")
}

// DocumentID derives the document id from a corpus file path.
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
