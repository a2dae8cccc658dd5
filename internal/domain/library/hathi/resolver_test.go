package hathi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type fakeHTTP struct {
	status int
	body   string
	err    error
	calls  int32
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     make(http.Header),
	}, nil
}

func (f *fakeHTTP) count() int { return int(atomic.LoadInt32(&f.calls)) }

const catalogURL = "https://catalog.hathitrust.org/Record/001234567"

func TestResolveID_HandleLink(t *testing.T) {
	page := `<html><body><div class="links">
	<a href="https://hdl.handle.net/2027/abc123">Full view
	  here</a></div></body></html>`
	doer := &fakeHTTP{status: 200, body: page}
	r := NewResolver(doer, nil)

	id, err := r.ResolveID(context.Background(), catalogURL)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("ResolveID: want abc123, got %q", id)
	}
}

func TestResolveID_QueryLink(t *testing.T) {
	page := `<html><body><a href="https://example.org/pt?id=xyz789">Full view</a></body></html>`
	r := NewResolver(&fakeHTTP{status: 200, body: page}, nil)

	id, err := r.ResolveID(context.Background(), catalogURL)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if id != "xyz789" {
		t.Fatalf("ResolveID: want xyz789, got %q", id)
	}
}

func TestResolveID_CachesSuccess(t *testing.T) {
	page := `<a href="https://hdl.handle.net/2027/mdp.39015012345678">Full view</a>`
	doer := &fakeHTTP{status: 200, body: page}
	cache := NewCache()
	r := NewResolver(doer, cache)

	for i := 0; i < 3; i++ {
		id, err := r.ResolveID(context.Background(), catalogURL)
		if err != nil {
			t.Fatalf("ResolveID #%d: %v", i, err)
		}
		if id != "mdp.39015012345678" {
			t.Fatalf("ResolveID #%d: got %q", i, id)
		}
	}
	if doer.count() != 1 {
		t.Fatalf("expected one fetch, got %d", doer.count())
	}
	if got, ok := cache.Get(catalogURL); !ok || got != "mdp.39015012345678" {
		t.Fatalf("cache entry: %q ok=%v", got, ok)
	}
}

func TestResolveID_CacheHitSkipsNetwork(t *testing.T) {
	doer := &fakeHTTP{err: errors.New("network should not be used")}
	cache := NewCache()
	cache.Put(catalogURL, "cached.id")
	r := NewResolver(doer, cache)

	id, err := r.ResolveID(context.Background(), catalogURL)
	if err != nil || id != "cached.id" {
		t.Fatalf("ResolveID: id=%q err=%v", id, err)
	}
	if doer.count() != 0 {
		t.Fatalf("expected no fetch, got %d", doer.count())
	}
}

func TestResolveID_NoFullViewLink(t *testing.T) {
	page := `<html><body>
	<a href="https://example.org/a">Limited (search only)</a>
	<a>Full view</a>
	</body></html>`
	doer := &fakeHTTP{status: 200, body: page}
	cache := NewCache()
	r := NewResolver(doer, cache)

	for i := 0; i < 2; i++ {
		_, err := r.ResolveID(context.Background(), catalogURL)
		if !errors.Is(err, ErrFullViewNotFound) {
			t.Fatalf("want ErrFullViewNotFound, got %v", err)
		}
		var fe *FetchError
		if errors.As(err, &fe) {
			t.Fatalf("missing link must not be a fetch error")
		}
	}
	if cache.Len() != 0 {
		t.Fatalf("negative result was cached")
	}
	if doer.count() != 2 {
		t.Fatalf("each call should refetch, got %d fetches", doer.count())
	}
}

func TestResolveID_FetchErrors(t *testing.T) {
	cases := []struct {
		name string
		doer *fakeHTTP
	}{
		{"network", &fakeHTTP{err: errors.New("connection refused")}},
		{"status", &fakeHTTP{status: 404, body: "not found"}},
		{"server", &fakeHTTP{status: 503, body: `<a href="https://hdl.handle.net/2027/x">Full view</a>`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache := NewCache()
			r := NewResolver(tc.doer, cache)
			_, err := r.ResolveID(context.Background(), catalogURL)
			var fe *FetchError
			if !errors.As(err, &fe) {
				t.Fatalf("want *FetchError, got %v", err)
			}
			if fe.URL != catalogURL {
				t.Fatalf("FetchError.URL: %q", fe.URL)
			}
			if cache.Len() != 0 {
				t.Fatalf("failure was cached")
			}
		})
	}
}

func TestResolveID_InvalidURL(t *testing.T) {
	r := NewResolver(&fakeHTTP{status: 200}, nil)
	_, err := r.ResolveID(context.Background(), "://bad")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FetchError, got %v", err)
	}
}

type blockingHTTP struct {
	release chan struct{}
	calls   int32
	body    string
}

func (b *blockingHTTP) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(b.body)), Header: make(http.Header)}, nil
}

func TestResolveID_ConcurrentCallersShareFetch(t *testing.T) {
	doer := &blockingHTTP{
		release: make(chan struct{}),
		body:    `<a href="https://hdl.handle.net/2027/shared.1">Full view</a>`,
	}
	r := NewResolver(doer, nil)

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.ResolveID(context.Background(), catalogURL)
		}(i)
	}

	// Let the goroutines pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(doer.release)
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil || ids[i] != "shared.1" {
			t.Fatalf("caller %d: id=%q err=%v", i, ids[i], errs[i])
		}
	}
	if c := atomic.LoadInt32(&doer.calls); c != 1 {
		t.Fatalf("expected one fetch, got %d", c)
	}
}

func TestFullViewHref_FirstMatchWins(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
	<p><a href="/one"><span>Full</span>
	   <span>view</span></a> <a href="/two">Full view</a>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	href, ok := FullViewHref(doc)
	if !ok || href != "/one" {
		t.Fatalf("FullViewHref: %q ok=%v", href, ok)
	}
}

func TestScanID(t *testing.T) {
	cases := []struct {
		href, want string
	}{
		{"https://hdl.handle.net/2027/abc123", "abc123"},
		{"http://hdl.handle.net/2027/mdp.39015012345678", "mdp.39015012345678"},
		{"https://hdl.handle.net/2027/uc1.$b12345", "uc1.$b12345"},
		{"https://babel.hathitrust.org/cgi/pt?id=mdp.39015012345678", "mdp.39015012345678"},
		{"https://example.org/pt?id=xyz789", "xyz789"},
		{"https://babel.hathitrust.org/cgi/pt?id=uc1.b123;view=1up", "uc1.b123"},
		{"https://babel.hathitrust.org/cgi/pt?view=1up;seq=7;id=mdp.39015012345678", "mdp.39015012345678"},
		{"https://babel.hathitrust.org/cgi/pt?seq=7&id=uc1.%24b12345", "uc1.$b12345"},
		{"https://example.org/scans/nyp.33433", "nyp.33433"},
		{"https://example.org/scans/", "https://example.org/scans/"},
	}
	for _, tc := range cases {
		if got := ScanID(tc.href); got != tc.want {
			t.Fatalf("ScanID(%q): want %q, got %q", tc.href, tc.want, got)
		}
	}
}

func TestFullViewHref_CollapsesOnlyXMLWhitespace(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<a href=\"/nbsp\">Full\u00a0view</a> <a href=\"/tabbed\">\tFull\r\n  view </a>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	href, ok := FullViewHref(doc)
	if !ok || href != "/tabbed" {
		t.Fatalf("FullViewHref: want /tabbed, got %q ok=%v", href, ok)
	}
}

func TestResolveID_SemicolonQueryLink(t *testing.T) {
	page := `<a href="https://babel.hathitrust.org/cgi/pt?id=uc1.b123;view=1up">Full view</a>`
	r := NewResolver(&fakeHTTP{status: 200, body: page}, nil)

	id, err := r.ResolveID(context.Background(), catalogURL)
	if err != nil {
		t.Fatalf("ResolveID: %v", err)
	}
	if id != "uc1.b123" {
		t.Fatalf("ResolveID: want uc1.b123, got %q", id)
	}
}
