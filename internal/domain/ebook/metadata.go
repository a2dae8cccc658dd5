// Package ebook locates a Standard Ebooks source tree's package metadata
// from any file inside it and reads the dc:source URLs listed there.
package ebook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrMetadataNotFound means no META-INF/container.xml could be found near a file.
var ErrMetadataNotFound = errors.New("ebook metadata file not found")

// ReadError reports a container or package document that couldn't be read or parsed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// FindContainer returns the path of META-INF/container.xml for the ebook
// containing filename. The src directory is looked for three, two and one
// levels up from the file's directory, then in the directory itself.
func FindContainer(filename string) (string, error) {
	if filename == "" {
		return "", ErrMetadataNotFound
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", filename, err)
	}
	dir := filepath.Dir(abs)

	candidates := []string{
		filepath.Join(dir, "..", "..", "..", "src"),
		filepath.Join(dir, "..", "..", "src"),
		filepath.Join(dir, "..", "src"),
		filepath.Join(dir, "src"),
	}
	srcDir := candidates[len(candidates)-1]
	for _, c := range candidates {
		if isDir(c) {
			srcDir = c
			break
		}
	}

	container := filepath.Join(srcDir, "META-INF", "container.xml")
	if info, err := os.Stat(container); err != nil || info.IsDir() {
		return "", ErrMetadataNotFound
	}
	return container, nil
}

// IsEbookFile reports whether filename sits inside an ebook source tree
func IsEbookFile(filename string) bool {
	_, err := FindContainer(filename)
	return err == nil
}

// MetadataPath returns the package document (content.opf) path for the
// ebook containing filename.
func MetadataPath(filename string) (string, error) {
	container, err := FindContainer(filename)
	if err != nil {
		return "", err
	}

	doc, err := parseFile(container)
	if err != nil {
		return "", err
	}

	rootfile := xmlquery.FindOne(doc, "//*[local-name()='rootfiles']/*[local-name()='rootfile'][@full-path]")
	if rootfile == nil {
		return "", &ReadError{Path: container, Err: errors.New("no rootfile full-path")}
	}
	full := rootfile.SelectAttr("full-path")

	srcDir := filepath.Dir(filepath.Dir(container))
	return filepath.Join(srcDir, filepath.FromSlash(full)), nil
}

// Sources returns the dc:source values of a package document in document order
func Sources(metadataPath string) ([]string, error) {
	doc, err := parseFile(metadataPath)
	if err != nil {
		return nil, err
	}

	nodes, err := xmlquery.QueryAll(doc, "/*[local-name()='package']/*[local-name()='metadata']/*[local-name()='source']")
	if err != nil {
		return nil, &ReadError{Path: metadataPath, Err: err}
	}

	var sources []string
	for _, n := range nodes {
		if s := strings.TrimSpace(n.InnerText()); s != "" {
			sources = append(sources, s)
		}
	}
	return sources, nil
}

// SourcesFor locates the package document for filename and returns its sources.
func SourcesFor(filename string) (string, []string, error) {
	metadataPath, err := MetadataPath(filename)
	if err != nil {
		return "", nil, err
	}
	sources, err := Sources(metadataPath)
	return metadataPath, sources, err
}

func parseFile(path string) (*xmlquery.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("parsing XML: %w", err)}
	}
	return doc, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
