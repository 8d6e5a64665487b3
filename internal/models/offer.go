package models

// Offer is the detail record for a single scraped offer page. It is
// constructed fresh per fetch and never mutated after construction.
//
// A false OK marks a candidate whose hydration failed; such records keep
// whatever the listing page knew (title, teaser, price) and nothing else.
type Offer struct {
	OK       bool     `json:"ok"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Teaser   string   `json:"teaser,omitempty"`
	Price    *float64 `json:"price"`
	Merchant string   `json:"merchant,omitempty"`
	Address  string   `json:"address,omitempty"`
	Validity string   `json:"validity,omitempty"`

	// Options and Images always serialize, as [] when nothing was found.
	Options []OfferOption `json:"options"`
	Images  []string      `json:"images"`

	// SourceURL is the listing page the offer was discovered on. Empty
	// for offers fetched directly by URL or id.
	SourceURL string `json:"sourceUrl,omitempty"`
}

// OfferOption is one priced choice on an offer page (a package, a
// duration, a number of nights). Identity is the (Label, Price) pair.
type OfferOption struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}
