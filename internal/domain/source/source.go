package source

import "strings"

// Provider identifies which external search interface a source URL belongs to
type Provider string

const (
	ProviderGoogleBooksScan    Provider = "google-books-scan"
	ProviderGoogleBooksGeneric Provider = "google-books"
	ProviderInternetArchive    Provider = "internet-archive"
	ProviderHathiTrustCatalog  Provider = "hathitrust-catalog"
	ProviderUnrecognized       Provider = "unrecognized"
)

func (p Provider) String() string {
	return string(p)
}

// Prefixes in match priority order.
const (
	googleBooksScanPrefix    = "https://books.google."
	googleBooksGenericPrefix = "https://www.google.com/books"
	internetArchivePrefix    = "https://archive.org"
	hathiCatalogPrefix       = "https://catalog.hathitrust.org"
)

// HathiSearchURL is the HathiTrust full-text search endpoint for a single scan.
const HathiSearchURL = "https://babel.hathitrust.org/cgi/pt/search"

// Classify returns the provider a source URL belongs to
func Classify(sourceURL string) Provider {
	switch {
	case strings.HasPrefix(sourceURL, googleBooksScanPrefix):
		return ProviderGoogleBooksScan
	case strings.HasPrefix(sourceURL, googleBooksGenericPrefix):
		return ProviderGoogleBooksGeneric
	case strings.HasPrefix(sourceURL, internetArchivePrefix):
		return ProviderInternetArchive
	case strings.HasPrefix(sourceURL, hathiCatalogPrefix):
		return ProviderHathiTrustCatalog
	default:
		return ProviderUnrecognized
	}
}

// GoogleBooksScanURL appends a phrase query to a books.google.* scan URL.
func GoogleBooksScanURL(sourceURL, selection string) string {
	return sourceURL + "&q=" + QuotePhrase(selection)
}

// GoogleBooksGenericURL turns a google.com/books URL into an in-book search.
func GoogleBooksGenericURL(sourceURL, selection string) string {
	return sourceURL + "?gbpv=1&bsq=" + QuotePhrase(selection)
}

// InternetArchiveURL builds an archive.org in-book search. Punctuation is
// removed from the selection first because IA search fails on it.
func InternetArchiveURL(sourceURL, selection string) string {
	return strings.Trim(sourceURL, "/") + "/search/" + QuotePhrase(StripPunctuation(selection))
}

// HathiTrustURL builds a full-text search against one HathiTrust scan.
func HathiTrustURL(scanID, selection string) string {
	return HathiSearchURL + "?q1=" + QuotePhrase(selection) + ";id=" + scanID
}
