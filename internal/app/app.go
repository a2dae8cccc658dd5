package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"sesearch/internal/browser"
	"sesearch/internal/cli/scheme/colours"
	"sesearch/internal/config"
	"sesearch/internal/domain/ebook"
	"sesearch/internal/domain/library/hathi"
	"sesearch/internal/domain/source"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Status messages shown to the user
const (
	msgMetadataNotFound = "Couldn’t locate SE ebook metadata file."
	msgMetadataRead     = "Couldn’t read SE ebook metadata file located in %s"
	msgSourceRead       = "Couldn’t read source: %s"
	msgUnrecognized     = "Couldn’t recognize source URL."
	msgOpenFailed       = "Couldn’t open browser: %v"
	msgNoFullView       = "No full view copy listed for %s"
)

// SourceSearch is the main application structure. One instance lives for the
// whole process so HathiTrust resolutions are shared between commands.
type SourceSearch struct {
	resolver   *hathi.Resolver
	classifier *source.Classifier
	opener     browser.Opener
	out        io.Writer // results: rendered matches, paths, ids
	status     io.Writer // status and error lines
	in         io.Reader
	format     string
}

// Options wires collaborators into a SourceSearch. Zero values get defaults.
type Options struct {
	Config config.Config
	Client hathi.Doer
	Opener browser.Opener
	Out    io.Writer
	Status io.Writer // os.Stderr when nil, so structured output stays clean
	In     io.Reader
}

func NewSourceSearch(opts Options) (*SourceSearch, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Status == nil {
		opts.Status = os.Stderr
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Config.HTTPTimeout}
	}
	if opts.Opener == nil {
		opener, err := browser.NewOpener(browser.Config{Type: opts.Config.BrowserType, Out: opts.Out})
		if err != nil {
			return nil, fmt.Errorf("failed to create browser opener: %w", err)
		}
		opts.Opener = opener
	}
	format := opts.Config.OutputFormat
	if format == "" {
		format = formatText
	}

	resolver := hathi.NewResolver(opts.Client, hathi.NewCache())
	return &SourceSearch{
		resolver:   resolver,
		classifier: source.NewClassifier(resolver),
		opener:     opts.Opener,
		out:        opts.Out,
		status:     opts.Status,
		in:         opts.In,
		format:     format,
	}, nil
}

// Resolver exposes the shared HathiTrust resolver
func (ss *SourceSearch) Resolver() *hathi.Resolver {
	return ss.resolver
}

// SearchRequest describes one search-source invocation
type SearchRequest struct {
	Selection string
	File      string   // document being edited; used to find the ebook metadata
	Sources   []string // explicit sources; when empty they are read from File's metadata
	NoOpen    bool     // render the result instead of opening it
}

// Search resolves the selection against the ebook's sources, opens every
// synthesized URL and reports failures as status lines. The returned error
// is the underlying cause, already reported to the user.
func (ss *SourceSearch) Search(ctx context.Context, req SearchRequest) (source.Result, error) {
	selection := strings.TrimSpace(req.Selection)
	if selection == "" {
		return source.Result{}, source.ErrEmptySelection
	}

	sources := req.Sources
	if len(sources) == 0 {
		metadataPath, found, err := ebook.SourcesFor(req.File)
		if err != nil {
			ss.reportMetadataError(err, metadataPath)
			return source.Result{}, err
		}
		sources = found
	}

	res, err := ss.classifier.Resolve(ctx, selection, sources)

	if req.NoOpen {
		if rerr := ss.render(res); rerr != nil {
			logrus.WithError(rerr).Error("Failed to render result")
		}
	} else {
		ss.openAll(res.URLs())
	}

	ss.reportSearchError(err)
	return res, err
}

func (ss *SourceSearch) openAll(urls []string) {
	for _, u := range urls {
		if err := ss.opener.Open(u); err != nil {
			logrus.WithError(err).WithField("url", u).Warn("Failed to open browser")
			ss.reportStatus(fmt.Sprintf(msgOpenFailed, err))
		}
	}
}

func (ss *SourceSearch) reportSearchError(err error) {
	var fetchErr *hathi.FetchError
	switch {
	case err == nil:
	case errors.Is(err, source.ErrEmptySelection):
	case errors.Is(err, hathi.ErrFullViewNotFound):
		logrus.WithError(err).Debug("No full view link on catalog record")
	case errors.As(err, &fetchErr):
		logrus.WithError(fetchErr.Err).WithField("catalog", fetchErr.URL).Warn("Failed to fetch HathiTrust catalog record")
		ss.reportStatus(fmt.Sprintf(msgSourceRead, fetchErr.URL))
	case errors.Is(err, source.ErrUnrecognizedSource):
		ss.reportStatus(msgUnrecognized)
	default:
		ss.reportError(err)
	}
}

func (ss *SourceSearch) reportMetadataError(err error, metadataPath string) {
	var readErr *ebook.ReadError
	switch {
	case errors.Is(err, ebook.ErrMetadataNotFound):
		ss.reportStatus(msgMetadataNotFound)
	case errors.As(err, &readErr):
		path := metadataPath
		if path == "" {
			path = readErr.Path
		}
		logrus.WithError(readErr.Err).WithField("path", readErr.Path).Warn("Failed to read ebook metadata")
		ss.reportStatus(fmt.Sprintf(msgMetadataRead, path))
	default:
		ss.reportError(err)
	}
}

// reportStatus surfaces a transient, non-fatal message to the user
func (ss *SourceSearch) reportStatus(msg string) {
	colours.Warning.Fprintln(ss.status, msg)
}

func (ss *SourceSearch) reportError(err error) {
	colours.Error.Fprintf(ss.status, "❌ Error: %v\n", err)
}

// SearchSource is the cobra handler for the search command
func (ss *SourceSearch) SearchSource(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	sources, _ := cmd.Flags().GetStringArray("source")
	noOpen, _ := cmd.Flags().GetBool("no-open")

	selection := strings.Join(args, " ")
	if len(args) == 0 {
		var err error
		selection, err = readAll(ss.in)
		if err != nil {
			ss.reportError(fmt.Errorf("failed to read selection: %w", err))
			return
		}
	}

	ss.Search(cmd.Context(), SearchRequest{
		Selection: selection,
		File:      file,
		Sources:   sources,
		NoOpen:    noOpen,
	})
}

// ShowMetadataPath is the cobra handler for the metadata command
func (ss *SourceSearch) ShowMetadataPath(cmd *cobra.Command, args []string) {
	path, err := ebook.MetadataPath(args[0])
	if err != nil {
		ss.reportMetadataError(err, "")
		return
	}
	fmt.Fprintln(ss.out, path)
}

// ListSources is the cobra handler for the sources command
func (ss *SourceSearch) ListSources(cmd *cobra.Command, args []string) {
	metadataPath, sources, err := ebook.SourcesFor(args[0])
	if err != nil {
		ss.reportMetadataError(err, metadataPath)
		return
	}

	entries := make([]SourceEntry, 0, len(sources))
	for _, s := range sources {
		entries = append(entries, SourceEntry{URL: s, Provider: source.Classify(s)})
	}
	if err := ss.renderSources(entries); err != nil {
		ss.reportError(err)
	}
}

// ResolveHathi is the cobra handler for the hathi command
func (ss *SourceSearch) ResolveHathi(cmd *cobra.Command, args []string) {
	ids := make([]HathiEntry, 0, len(args))
	for _, catalogURL := range args {
		id, err := ss.resolver.ResolveID(cmd.Context(), catalogURL)
		if errors.Is(err, hathi.ErrFullViewNotFound) {
			ss.reportStatus(fmt.Sprintf(msgNoFullView, catalogURL))
			continue
		}
		if err != nil {
			ss.reportSearchError(err)
			continue
		}
		ids = append(ids, HathiEntry{Catalog: catalogURL, ID: id})
	}
	if err := ss.renderHathi(ids); err != nil {
		ss.reportError(err)
	}
}

func readAll(r io.Reader) (string, error) {
	var b strings.Builder
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(scanner.Text())
	}
	return b.String(), scanner.Err()
}
