package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vgenov/rio-tools-server/internal/models"
	"github.com/vgenov/rio-tools-server/internal/util"
)

const (
	maxOfferImages = 12
	maxOptionLabel = 200
)

var (
	currencyRegex = regexp.MustCompile(`(?i)лв`)
	// A labeled "Адрес: ..." segment, or a bare "гр. <city>, ..." run.
	addressRegex = regexp.MustCompile(`(?i)Адрес[^:]*:\s*([^|]+)|гр\.\s*[^,]+[^|]+`)
	// "Валидност на ваучера: <free text ending in a year>".
	validityRegex = regexp.MustCompile(`(?i)Валидност на ваучера:\s*([^.]+?\d{4}г?)`)
)

// extractRule is one named heuristic applied to an offer document. Rules
// run in a fixed order; against ambiguous markup the order matters.
type extractRule struct {
	name  string
	apply func(doc *goquery.Document, offer *models.Offer)
}

func (c *Client) offerRules() []extractRule {
	return []extractRule{
		{name: "title", apply: c.extractTitle},
		{name: "price", apply: c.extractPrice},
		{name: "merchant", apply: c.extractMerchant},
		{name: "address", apply: c.extractAddress},
		{name: "validity", apply: c.extractValidity},
		{name: "options", apply: c.extractOptions},
		{name: "images", apply: c.extractImages},
	}
}

// ScrapeOffer fetches one offer page (by URL or bare id slug) and runs the
// extraction rules over it. A fetch or parse failure is returned to the
// caller; batch callers substitute a partial OK=false record instead.
func (c *Client) ScrapeOffer(ctx context.Context, urlOrID string) (models.Offer, error) {
	pageURL := c.urls.OfferURL(urlOrID)
	doc, err := c.fetch.Document(ctx, pageURL)
	if err != nil {
		return models.Offer{URL: pageURL}, fmt.Errorf("failed to fetch or parse offer page %s: %w", pageURL, err)
	}

	offer := models.Offer{
		OK:      true,
		URL:     pageURL,
		Options: []models.OfferOption{},
		Images:  []string{},
	}
	for _, rule := range c.offerRules() {
		rule.apply(doc, &offer)
	}
	return offer, nil
}

// extractTitle takes the first h1, falling back to the first h2.
func (c *Client) extractTitle(doc *goquery.Document, offer *models.Offer) {
	title := strings.TrimSpace(doc.Find(c.selectors.Offer.Title).First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find(c.selectors.Offer.TitleFallback).First().Text())
	}
	offer.Title = title
}

// extractPrice takes the first node whose text carries both a price-marker
// phrase and a currency amount. First match wins; pages repeat crossed-out
// old prices further down.
func (c *Client) extractPrice(doc *goquery.Document, offer *models.Offer) {
	marked := deepestMatching(doc, func(text string) bool {
		return c.hasPriceMarker(text) && currencyRegex.MatchString(text)
	})
	marked.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, found := util.PickPrice(s.Text()); found {
			offer.Price = &v
			return false
		}
		return true
	})
}

func (c *Client) hasPriceMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range c.selectors.Offer.PriceMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// extractMerchant prefers a merchant profile link; if the page has none it
// falls back to the first heading inside the contact-address section.
func (c *Client) extractMerchant(doc *goquery.Document, offer *models.Offer) {
	merchant := strings.TrimSpace(doc.Find(c.selectors.Offer.MerchantLinks).First().Text())
	if merchant == "" {
		merchant = strings.TrimSpace(c.contactSections(doc).First().
			Find(c.selectors.Offer.MerchantHeading).First().Text())
	}
	offer.Merchant = merchant
}

// extractAddress looks inside nodes containing the contact phrase for a
// labeled address or a bare city pattern. First match wins.
func (c *Client) extractAddress(doc *goquery.Document, offer *models.Offer) {
	phrase := c.selectors.Offer.ContactPhrase
	holders := deepestMatching(doc, func(text string) bool {
		t := util.CollapseSpace(text)
		return strings.Contains(t, phrase) && addressRegex.MatchString(t)
	})
	holders.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := addressRegex.FindStringSubmatch(util.CollapseSpace(s.Text()))
		if m == nil {
			return true
		}
		if m[1] != "" {
			offer.Address = strings.TrimSpace(m[1])
		} else {
			offer.Address = strings.TrimSpace(m[0])
		}
		return false
	})
}

// extractValidity pulls the voucher validity window out of the full page
// text and strips the label.
func (c *Client) extractValidity(doc *goquery.Document, offer *models.Offer) {
	bodyText := util.CollapseSpace(doc.Find("body").Text())
	if m := validityRegex.FindStringSubmatch(bodyText); m != nil {
		offer.Validity = strings.TrimSpace(m[1])
	}
}

// extractOptions keeps every text that pairs a currency amount with at
// least one option-indicator word, deduplicated by (label, price).
func (c *Client) extractOptions(doc *goquery.Document, offer *models.Offer) {
	var options []models.OfferOption
	rows := deepestMatching(doc, func(text string) bool {
		return currencyRegex.MatchString(text) && c.optionRegex.MatchString(text)
	})
	rows.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		price, found := util.PickPrice(text)
		if !found {
			return
		}
		options = append(options, models.OfferOption{
			Label: util.Truncate(util.CollapseSpace(text), maxOptionLabel),
			Price: price,
		})
	})
	offer.Options = util.UniqBy(options, func(o models.OfferOption) models.OfferOption { return o })
}

// extractImages collects image sources, skipping decorative ones, resolved
// absolute, deduplicated and capped in discovery order.
func (c *Client) extractImages(doc *goquery.Document, offer *models.Offer) {
	var images []string
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" || c.isExcludedImage(src) {
			return
		}
		images = append(images, c.urls.Absolute(src))
	})
	images = util.UniqBy(images, func(s string) string { return s })
	if len(images) > maxOfferImages {
		images = images[:maxOfferImages]
	}
	offer.Images = images
}

func (c *Client) isExcludedImage(src string) bool {
	lower := strings.ToLower(src)
	for _, marker := range c.selectors.Offer.ImageExclude {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// contactSections returns every section whose text carries the contact
// phrase. goquery has no :contains pseudo-selector, so filter manually.
func (c *Client) contactSections(doc *goquery.Document) *goquery.Selection {
	phrase := c.selectors.Offer.ContactPhrase
	return doc.Find("section").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), phrase)
	})
}

// deepestMatching returns the elements satisfying pred whose own child
// elements do not, i.e. the innermost nodes actually carrying the matched
// text. Matching the whole tree would always hit <html> first and drown
// the rule in unrelated page text. pred must be monotone over containment
// (true for substring and regex-presence checks), so testing direct
// children suffices.
func deepestMatching(doc *goquery.Document, pred func(string) bool) *goquery.Selection {
	return doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !pred(s.Text()) {
			return false
		}
		match := false
		s.Children().EachWithBreak(func(_ int, ch *goquery.Selection) bool {
			if pred(ch.Text()) {
				match = true
				return false
			}
			return true
		})
		return !match
	})
}
