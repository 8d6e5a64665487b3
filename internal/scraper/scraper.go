// Package scraper discovers offers on rio.bg listing pages and extracts
// structured detail records from offer pages.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/vgenov/rio-tools-server/internal/config"
	"github.com/vgenov/rio-tools-server/internal/fetch"
	"github.com/vgenov/rio-tools-server/internal/models"
	"github.com/vgenov/rio-tools-server/internal/rio"
	"github.com/vgenov/rio-tools-server/internal/util"
)

type Scraper interface {
	ScrapeList(ctx context.Context, listURL string, opts ListOptions) ([]models.Offer, error)
	ScrapeOffer(ctx context.Context, urlOrID string) (models.Offer, error)
}

// ListOptions controls one list scrape. Limit is taken as given; the API
// layer owns clamping it to the configured ceiling.
type ListOptions struct {
	Limit   int
	Keyword string
}

type Client struct {
	fetch     *fetch.Client
	urls      rio.URLs
	selectors SelectorConfig

	hydrateConcurrency int
	maxCandidates      int

	optionRegex *regexp.Regexp
}

func New(cfg *config.Config, f *fetch.Client, selectors SelectorConfig) *Client {
	hydrateConcurrency := cfg.HydrateConcurrency
	if hydrateConcurrency <= 0 {
		hydrateConcurrency = 4
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 80
	}
	return &Client{
		fetch:              f,
		urls:               rio.NewURLs(cfg.BaseURL),
		selectors:          selectors,
		hydrateConcurrency: hydrateConcurrency,
		maxCandidates:      maxCandidates,
		optionRegex:        compileMarkerRegex(selectors.Offer.OptionMarkers),
	}
}

// compileMarkerRegex builds a case-insensitive alternation out of literal
// marker phrases.
func compileMarkerRegex(markers []string) *regexp.Regexp {
	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}
	if len(quoted) == 0 {
		// Matches nothing.
		return regexp.MustCompile(`\z.`)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

// candidate is what a listing page knows about an offer before hydration.
type candidate struct {
	URL    string
	Title  string
	Teaser string
	Price  *float64
}

// ScrapeList fetches a listing page, discovers offer links, applies the
// optional keyword filter and hydrates the top opts.Limit offers through
// ScrapeOffer with at most hydrateConcurrency fetches in flight. A failed
// hydration degrades that record to OK=false; it never fails the batch.
func (c *Client) ScrapeList(ctx context.Context, listURL string, opts ListOptions) ([]models.Offer, error) {
	doc, err := c.fetch.Document(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch or parse listing page %s: %w", listURL, err)
	}

	candidates := c.collectCandidates(doc)
	unique := util.UniqBy(candidates, func(x candidate) string { return x.URL })
	// Cap the working set before filtering so a huge listing cannot blow
	// up the hydration fan-out.
	if len(unique) > c.maxCandidates {
		unique = unique[:c.maxCandidates]
	}

	filtered := unique
	if opts.Keyword != "" {
		keyword := strings.ToLower(opts.Keyword)
		filtered = make([]candidate, 0, len(unique))
		for _, cand := range unique {
			if strings.Contains(strings.ToLower(cand.Title+" "+cand.Teaser), keyword) {
				filtered = append(filtered, cand)
			}
		}
	}

	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	if limit > len(filtered) {
		limit = len(filtered)
	}
	top := filtered[:limit]

	results := make([]models.Offer, len(top))
	g := new(errgroup.Group)
	g.SetLimit(c.hydrateConcurrency)
	for i, cand := range top {
		g.Go(func() error {
			offer, err := c.ScrapeOffer(ctx, cand.URL)
			if err != nil {
				slog.Warn("Failed to hydrate offer, keeping listing data", "url", cand.URL, "error", err)
				offer = models.Offer{
					OK:      false,
					URL:     cand.URL,
					Title:   cand.Title,
					Teaser:  cand.Teaser,
					Price:   cand.Price,
					Options: []models.OfferOption{},
					Images:  []string{},
				}
			}
			offer.SourceURL = listURL
			results[i] = offer
			return nil
		})
	}
	g.Wait()

	return results, nil
}

func (c *Client) collectCandidates(doc *goquery.Document) []candidate {
	var candidates []candidate
	doc.Find(c.selectors.Listing.OfferLink).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		title := util.CollapseSpace(a.Text())
		teaser := util.Truncate(util.CollapseSpace(a.Closest(c.selectors.Listing.TeaserScope).Text()), 200)

		// Prefer a price from the surrounding block, then the link text.
		var price *float64
		if v, found := util.PickPrice(teaser); found {
			price = &v
		} else if v, found := util.PickPrice(title); found {
			price = &v
		}

		candidates = append(candidates, candidate{
			URL:    c.urls.Absolute(href),
			Title:  title,
			Teaser: teaser,
			Price:  price,
		})
	})
	return candidates
}
