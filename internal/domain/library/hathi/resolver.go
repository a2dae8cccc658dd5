package hathi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// FullViewText is the anchor text marking a publicly viewable scan on a
// catalog record page.
const FullViewText = "Full view"

// ErrFullViewNotFound means the catalog page has no "Full view" link.
var ErrFullViewNotFound = errors.New("hathitrust: full view link not found")

// FetchError reports a failure to fetch or read a catalog page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("hathitrust: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Doer is the minimal HTTP client the resolver needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver resolves catalog record URLs to scan identifiers by scraping the
// record page. Successful resolutions are cached; concurrent lookups of the
// same URL share one fetch.
type Resolver struct {
	client Doer
	cache  *Cache
	group  singleflight.Group
}

// NewResolver creates a resolver. A nil client uses http.DefaultClient and a
// nil cache gets a fresh one.
func NewResolver(client Doer, cache *Cache) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{client: client, cache: cache}
}

// Cache returns the resolver's cache
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// ResolveID returns the scan identifier for catalogURL. It returns a
// *FetchError when the page can't be fetched or parsed and
// ErrFullViewNotFound when it carries no full view link. Neither outcome is
// cached.
func (r *Resolver) ResolveID(ctx context.Context, catalogURL string) (string, error) {
	if id, ok := r.cache.Get(catalogURL); ok {
		logrus.WithFields(logrus.Fields{"catalog": catalogURL, "id": id}).Debug("HathiTrust cache hit")
		return id, nil
	}

	v, err, shared := r.group.Do(catalogURL, func() (interface{}, error) {
		// A flight that just ended may have filled the cache.
		if id, ok := r.cache.Get(catalogURL); ok {
			return id, nil
		}
		id, err := r.fetchID(ctx, catalogURL)
		if err != nil {
			return "", err
		}
		r.cache.Put(catalogURL, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}

	id := v.(string)
	logrus.WithFields(logrus.Fields{
		"catalog": catalogURL,
		"id":      id,
		"shared":  shared,
	}).Info("Resolved HathiTrust scan identifier")
	return id, nil
}

func (r *Resolver) fetchID(ctx context.Context, catalogURL string) (string, error) {
	logrus.WithField("catalog", catalogURL).Debug("Fetching HathiTrust catalog record")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, catalogURL, nil)
	if err != nil {
		return "", &FetchError{URL: catalogURL, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: catalogURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: catalogURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &FetchError{URL: catalogURL, Err: fmt.Errorf("unable to parse catalog page: %w", err)}
	}

	href, ok := FullViewHref(doc)
	if !ok {
		return "", ErrFullViewNotFound
	}
	return ScanID(href), nil
}

// FullViewHref returns the href of the first anchor whose whitespace
// collapsed text contains FullViewText.
func FullViewHref(doc *goquery.Document) (string, bool) {
	var href string
	var found bool
	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := normalizeSpace(s.Text())
		if !strings.Contains(text, FullViewText) {
			return true
		}
		href, found = s.Attr("href")
		return !found
	})
	return href, found
}

// normalizeSpace collapses runs of space, tab, CR and LF into one space and
// trims the ends, as XPath normalize-space does. Other whitespace is kept.
func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n'
	}), " ")
}

var reHandlePrefix = regexp.MustCompile(`^https?://hdl\.handle\.net/[0-9]+/`)

// ScanID normalizes a full view href into a bare scan identifier.
//
// Handle links (hdl.handle.net/<prefix>/<id>) keep what follows the handle
// prefix. Other links use their "id" query parameter when present (pairs may
// be separated by "&" or ";"), otherwise the final path segment.
func ScanID(href string) string {
	if strings.Contains(href, "hdl.handle.net") {
		return reHandlePrefix.ReplaceAllString(href, "")
	}

	if u, err := url.Parse(href); err == nil {
		if id := queryID(u.RawQuery); id != "" {
			return id
		}
		if u.Path != "" && !strings.HasSuffix(u.Path, "/") {
			return path.Base(u.Path)
		}
	}

	if i := strings.LastIndex(href, "/"); i >= 0 && i < len(href)-1 {
		return href[i+1:]
	}
	return href
}

// queryID returns the first non-empty "id" value of a raw query string.
// url.ParseQuery rejects ";" separators, which HathiTrust viewer links use.
func queryID(rawQuery string) string {
	pairs := strings.FieldsFunc(rawQuery, func(r rune) bool { return r == '&' || r == ';' })
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		if key != "id" || value == "" {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			return unescaped
		}
		return value
	}
	return ""
}
