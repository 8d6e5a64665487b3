// Package rio maps loose city/category input onto rio.bg URL paths.
package rio

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the upstream site all listing and offer paths hang off.
const DefaultBaseURL = "https://rio.bg"

// OfferPathMarker identifies anchors that point at offer detail pages.
const OfferPathMarker = "/oferti/"

var whitespaceRegex = regexp.MustCompile(`\s+`)

// citySlugs maps known city inputs to their canonical path segment.
// Unknown cities pass through unchanged so new cities on the site keep
// working without a code change.
var citySlugs = map[string]string{
	"sofia":          "sofia",
	"plovdiv":        "plovdiv",
	"varna":          "varna",
	"burgas":         "burgas",
	"ruse":           "ruse",
	"pleven":         "pleven",
	"stara-zagora":   "stara-zagora",
	"veliko-tarnovo": "veliko-tarnovo",
	"dobrich":        "dobrich",
	"blagoevgrad":    "blagoevgrad",
	"asenovgrad":     "asenovgrad",
	"stara%20zagora": "stara-zagora",
}

// categorySlugs maps known category inputs. "oferti" is the site's
// all-offers sentinel and resolves to the empty segment.
var categorySlugs = map[string]string{
	"krasota":  "krasota",
	"hapvane":  "hapvane",
	"pochivki": "pochivki",
	"oferti":   "",
}

// NormalizeCity lower-cases the input, joins whitespace with dashes and
// resolves it through the known city slugs. Idempotent.
func NormalizeCity(city string) string {
	if city == "" {
		return ""
	}
	key := whitespaceRegex.ReplaceAllString(strings.ToLower(city), "-")
	if slug, ok := citySlugs[key]; ok {
		return slug
	}
	return key
}

// NormalizeCategory resolves the input through the known category slugs,
// treating "oferti" (all offers) as empty. Idempotent.
func NormalizeCategory(category string) string {
	if category == "" {
		return ""
	}
	key := strings.ToLower(category)
	if slug, ok := categorySlugs[key]; ok {
		return slug
	}
	return key
}

// URLs composes listing, offer and absolute URLs against a base.
type URLs struct {
	base string
}

// NewURLs returns a URL builder rooted at base. A trailing slash on base
// is dropped so composed paths never carry a double slash.
func NewURLs(base string) URLs {
	if base == "" {
		base = DefaultBaseURL
	}
	return URLs{base: strings.TrimRight(base, "/")}
}

func (u URLs) Base() string { return u.base }

// BuildListURL picks the most specific listing page the resolved city and
// category allow: /city/category, /city, /category, or the homepage.
// Absent or unmapped input degrades to the more general URL, never errors.
func (u URLs) BuildListURL(city, category string) string {
	c := NormalizeCity(city)
	cat := NormalizeCategory(category)
	switch {
	case c != "" && cat != "":
		return u.base + "/" + c + "/" + cat
	case c != "":
		return u.base + "/" + c
	case cat != "":
		return u.base + "/" + cat
	default:
		return u.base + "/"
	}
}

// Absolute resolves a scraped href against the base. Empty input stays
// empty; protocol-relative hrefs get https.
func (u URLs) Absolute(href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "http"):
		return href
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return u.base + href
	default:
		return u.base + "/" + href
	}
}

// OfferURL accepts either a fully-qualified offer URL or a bare offer id
// slug (e.g. "J96OaL") and returns the page URL to fetch.
func (u URLs) OfferURL(urlOrID string) string {
	lower := strings.ToLower(urlOrID)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return urlOrID
	}
	return u.base + OfferPathMarker + url.PathEscape(urlOrID)
}
