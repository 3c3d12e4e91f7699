package document

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

//go:embed default.xml
var defaultXML []byte

// DefaultBytes returns the built-in default document text.
func DefaultBytes() []byte {
	return bytes.Clone(defaultXML)
}

// Default returns a freshly parsed copy of the built-in default layout: a
// background and a bottom panel holding a launcher, a task list and a clock.
func Default() *Document {
	doc, err := Parse(bytes.NewReader(defaultXML))
	if err != nil {
		panic(fmt.Sprintf("document: built-in default is malformed: %v", err))
	}
	return doc
}

// OpenError reports that no document file could be read. The built-in
// default was used in its place.
type OpenError struct {
	// Path is the first candidate that was tried.
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v (using built-in default)", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Open reads and parses the document at path.
//
// If the file cannot be read the built-in default document is returned with
// an *OpenError; nothing is written to disk. Otherwise the result of Parse is
// returned as is, including a partial tree for a malformed file. The returned
// document is never nil.
func Open(path string) (*Document, error) {
	doc, _, err := OpenFirst(path)
	return doc, err
}

// OpenFirst reads and parses the first of paths that can be read, in order,
// and also returns which path that was. Empty paths are skipped. When no
// candidate can be read it behaves like Open: the built-in default comes back
// with an *OpenError naming the first candidate and wrapping every failure,
// and the returned path is "".
func OpenFirst(paths ...string) (*Document, string, error) {
	var (
		first string
		errs  []error
	)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if first == "" {
			first = path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		doc, err := Parse(bytes.NewReader(data))
		return doc, path, err
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no document path"))
	}
	return Default(), "", &OpenError{Path: first, Err: errors.Join(errs...)}
}

// WriteFile atomically replaces the file at path with the canonical encoding
// of doc, creating the parent directory if needed.
func WriteFile(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := atomicwriter.WriteFile(path, Marshal(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
