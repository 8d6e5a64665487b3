package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig collects the selectors and marker phrases the extraction
// heuristics match against. The upstream markup is not under our control,
// so these live in config rather than in the rules themselves.
type SelectorConfig struct {
	Listing ListingSelectors `json:"listing"`
	Offer   OfferSelectors   `json:"offer"`
}

type ListingSelectors struct {
	// OfferLink finds anchors that point at offer detail pages.
	OfferLink string `json:"offer_link"`
	// TeaserScope is the ancestor set whose text serves as the teaser.
	TeaserScope string `json:"teaser_scope"`
}

type OfferSelectors struct {
	Title           string `json:"title"`
	TitleFallback   string `json:"title_fallback"`
	MerchantLinks   string `json:"merchant_links"`
	MerchantHeading string `json:"merchant_heading"`
	// ContactPhrase marks the section holding merchant and address data.
	ContactPhrase string `json:"contact_phrase"`
	// PriceMarkers label the headline price among many priced texts.
	PriceMarkers []string `json:"price_markers"`
	// OptionMarkers are words that priced option rows tend to contain.
	OptionMarkers []string `json:"option_markers"`
	// ImageExclude drops decorative image sources by substring.
	ImageExclude []string `json:"image_exclude"`
}

// LoadSelectors loads the selector configuration from a JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}

	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is
// loaded. The embedded selectors.json should be preferred.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		Listing: ListingSelectors{
			OfferLink:   "a[href*='/oferti/']",
			TeaserScope: "li,div,article",
		},
		Offer: OfferSelectors{
			Title:           "h1",
			TitleFallback:   "h2",
			MerchantLinks:   "a[href*='/firmi/'], a[href*='/profil/']",
			MerchantHeading: "h3,h4",
			ContactPhrase:   "Адрес и контакти",
			PriceMarkers:    []string{"ТОП ЦЕНА", "Цена:"},
			OptionMarkers:   []string{"Избери", "цена", "минут", "нощувк", "ваучер"},
			ImageExclude:    []string{"svg", "icon"},
		},
	}
}
