package source

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// HathiResolver maps a HathiTrust catalog record URL to a scan identifier.
type HathiResolver interface {
	ResolveID(ctx context.Context, catalogURL string) (string, error)
}

// Match records one provider hit while scanning sources.
type Match struct {
	Source    string   `json:"source" yaml:"source"`
	Provider  Provider `json:"provider" yaml:"provider"`
	SearchURL string   `json:"search_url" yaml:"search_url"`
}

// Result holds the search URLs synthesized for one selection, in the order
// they should be opened.
type Result struct {
	Selection string  `json:"selection" yaml:"selection"`
	Matches   []Match `json:"matches" yaml:"matches"`
}

// URLs returns the search URLs of every match.
func (r Result) URLs() []string {
	urls := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		urls = append(urls, m.SearchURL)
	}
	return urls
}

// Classifier turns a text selection and an ordered list of source URLs into
// search URLs against the matching provider.
type Classifier struct {
	hathi HathiResolver
}

// NewClassifier creates a classifier. hathi may be nil, in which case
// HathiTrust catalog sources end the scan without a result.
func NewClassifier(hathi HathiResolver) *Classifier {
	return &Classifier{hathi: hathi}
}

// Resolve scans sources in order and synthesizes search URLs for selection.
//
// The returned Result is meaningful even when err is non-nil: a
// google.com/books source yields a URL but does not end the scan, so a list
// with nothing else recognizable returns that URL together with
// ErrUnrecognizedSource. Errors from the HathiTrust resolver are returned
// unchanged.
func (c *Classifier) Resolve(ctx context.Context, selection string, sources []string) (Result, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return Result{}, ErrEmptySelection
	}

	res := Result{Selection: selection}
	add := func(src string, p Provider, u string) {
		res.Matches = append(res.Matches, Match{Source: src, Provider: p, SearchURL: u})
	}

	for _, src := range sources {
		switch Classify(src) {
		case ProviderGoogleBooksScan:
			add(src, ProviderGoogleBooksScan, GoogleBooksScanURL(src, selection))
			return res, nil

		case ProviderGoogleBooksGeneric:
			// Does not stop the scan.
			add(src, ProviderGoogleBooksGeneric, GoogleBooksGenericURL(src, selection))

		case ProviderInternetArchive:
			add(src, ProviderInternetArchive, InternetArchiveURL(src, selection))
			return res, nil

		case ProviderHathiTrustCatalog:
			if c.hathi == nil {
				return res, nil
			}
			id, err := c.hathi.ResolveID(ctx, src)
			if err != nil {
				return res, err
			}
			add(src, ProviderHathiTrustCatalog, HathiTrustURL(id, selection))
			return res, nil

		default:
			logrus.WithField("source", src).Debug("Skipping unrecognized source")
		}
	}

	return res, ErrUnrecognizedSource
}
