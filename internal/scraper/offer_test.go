package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vgenov/rio-tools-server/internal/config"
	"github.com/vgenov/rio-tools-server/internal/fetch"
	"github.com/vgenov/rio-tools-server/internal/models"
)

const offerFixture = `<html><body>
<h1>Спа уикенд за двама в хотел Панорама</h1>
<div id="gallery">
  <img src="/img/offer1.jpg">
  <img src="//cdn.rio.bg/img/offer2.jpg">
  <img src="/assets/icons/star.svg">
  <img src="/img/offer1.jpg">
</div>
<div class="price">ТОП ЦЕНА: 130 лв</div>
<ul class="options">
  <li>Избери 1 нощувка за двама - 130 лв</li>
  <li>Избери 2 нощувки за двама - 240 лв</li>
  <li>Избери 2 нощувки за двама - 240 лв</li>
</ul>
<section id="contacts">
  <h3>Студио Релакс</h3>
  <p>Адрес и контакти</p>
  <p>Адрес: гр. Велинград, ул. Еделвайс 4</p>
</section>
<p>Валидност на ваучера: до 30 юни 2026г. Запазете си час предварително.</p>
</body></html>`

func testScraperConfig(baseURL string) *config.Config {
	return &config.Config{
		BaseURL:            baseURL,
		UserAgent:          "test-agent/1.0",
		AcceptLanguage:     "bg,en;q=0.7",
		RequestTimeout:     5 * time.Second,
		HydrateConcurrency: 4,
		MaxCandidates:      80,
	}
}

func newTestClient(baseURL string) *Client {
	cfg := testScraperConfig(baseURL)
	return New(cfg, fetch.New(cfg), DefaultSelectors())
}

func fixtureDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestExtractTitle(t *testing.T) {
	c := newTestClient("https://rio.bg")

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 preferred",
			html: "<html><body><h1>Спа уикенд</h1><h2>Друго</h2></body></html>",
			want: "Спа уикенд",
		},
		{
			name: "h2 fallback",
			html: "<html><body><h2>Вечеря за двама</h2></body></html>",
			want: "Вечеря за двама",
		},
		{
			name: "no headings",
			html: "<html><body><p>нищо</p></body></html>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer models.Offer
			c.extractTitle(fixtureDoc(t, tt.html), &offer)
			if offer.Title != tt.want {
				t.Errorf("extractTitle() = %q, want %q", offer.Title, tt.want)
			}
		})
	}
}

func TestExtractPrice(t *testing.T) {
	c := newTestClient("https://rio.bg")

	tests := []struct {
		name string
		html string
		want float64
		ok   bool
	}{
		{
			name: "marked top price",
			html: offerFixture,
			want: 130,
			ok:   true,
		},
		{
			name: "price label variant",
			html: "<html><body><span>Цена: 45,50 лв</span></body></html>",
			want: 45.5,
			ok:   true,
		},
		{
			name: "unmarked price ignored",
			html: "<html><body><span>само 99 лв</span></body></html>",
			ok:   false,
		},
		{
			name: "marker without amount ignored",
			html: "<html><body><span>Цена: изгодна в лв</span></body></html>",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer models.Offer
			c.extractPrice(fixtureDoc(t, tt.html), &offer)
			if tt.ok {
				if offer.Price == nil || *offer.Price != tt.want {
					t.Errorf("extractPrice() = %v, want %v", offer.Price, tt.want)
				}
			} else if offer.Price != nil {
				t.Errorf("extractPrice() = %v, want nil", *offer.Price)
			}
		})
	}
}

func TestExtractMerchant(t *testing.T) {
	c := newTestClient("https://rio.bg")

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "merchant profile link preferred",
			html: "<html><body><a href='/firmi/studio-relax'>Студио Релакс ЕООД</a></body></html>",
			want: "Студио Релакс ЕООД",
		},
		{
			name: "profil link variant",
			html: "<html><body><a href='/profil/123'>Хотел Панорама</a></body></html>",
			want: "Хотел Панорама",
		},
		{
			name: "contact section heading fallback",
			html: offerFixture,
			want: "Студио Релакс",
		},
		{
			name: "nothing found",
			html: "<html><body><p>без фирма</p></body></html>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer models.Offer
			c.extractMerchant(fixtureDoc(t, tt.html), &offer)
			if offer.Merchant != tt.want {
				t.Errorf("extractMerchant() = %q, want %q", offer.Merchant, tt.want)
			}
		})
	}
}

func TestExtractAddress(t *testing.T) {
	c := newTestClient("https://rio.bg")

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "labeled address",
			html: offerFixture,
			want: "гр. Велинград, ул. Еделвайс 4",
		},
		{
			name: "bare city pattern",
			html: "<html><body><section><p>Адрес и контакти</p><p>гр. Пловдив жк Тракия</p></section></body></html>",
			want: "гр. Пловдив жк Тракия",
		},
		{
			name: "phrase absent",
			html: "<html><body><p>Адрес: гр. София</p></body></html>",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var offer models.Offer
			c.extractAddress(fixtureDoc(t, tt.html), &offer)
			if offer.Address != tt.want {
				t.Errorf("extractAddress() = %q, want %q", offer.Address, tt.want)
			}
		})
	}
}

func TestExtractValidity(t *testing.T) {
	c := newTestClient("https://rio.bg")

	var offer models.Offer
	c.extractValidity(fixtureDoc(t, offerFixture), &offer)
	if offer.Validity != "до 30 юни 2026г" {
		t.Errorf("extractValidity() = %q, want %q", offer.Validity, "до 30 юни 2026г")
	}

	var empty models.Offer
	c.extractValidity(fixtureDoc(t, "<html><body><p>без срок</p></body></html>"), &empty)
	if empty.Validity != "" {
		t.Errorf("extractValidity() = %q, want empty", empty.Validity)
	}
}

func TestExtractOptions(t *testing.T) {
	c := newTestClient("https://rio.bg")

	var offer models.Offer
	c.extractOptions(fixtureDoc(t, offerFixture), &offer)

	want := []models.OfferOption{
		{Label: "ТОП ЦЕНА: 130 лв", Price: 130},
		{Label: "Избери 1 нощувка за двама - 130 лв", Price: 130},
		{Label: "Избери 2 нощувки за двама - 240 лв", Price: 240},
	}
	if len(offer.Options) != len(want) {
		t.Fatalf("extractOptions() returned %d options, want %d: %v", len(offer.Options), len(want), offer.Options)
	}
	for i, opt := range offer.Options {
		if opt != want[i] {
			t.Errorf("extractOptions()[%d] = %v, want %v", i, opt, want[i])
		}
	}
}

func TestExtractImages(t *testing.T) {
	c := newTestClient("https://rio.bg")

	var offer models.Offer
	c.extractImages(fixtureDoc(t, offerFixture), &offer)

	want := []string{
		"https://rio.bg/img/offer1.jpg",
		"https://cdn.rio.bg/img/offer2.jpg",
	}
	if len(offer.Images) != len(want) {
		t.Fatalf("extractImages() = %v, want %v", offer.Images, want)
	}
	for i, img := range offer.Images {
		if img != want[i] {
			t.Errorf("extractImages()[%d] = %q, want %q", i, img, want[i])
		}
	}
}

func TestExtractImagesCap(t *testing.T) {
	c := newTestClient("https://rio.bg")

	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "<img src='/img/%d.jpg'>", i)
	}
	sb.WriteString("</body></html>")

	var offer models.Offer
	c.extractImages(fixtureDoc(t, sb.String()), &offer)
	if len(offer.Images) != maxOfferImages {
		t.Errorf("extractImages() kept %d images, want %d", len(offer.Images), maxOfferImages)
	}
	if offer.Images[0] != "https://rio.bg/img/0.jpg" {
		t.Errorf("extractImages() lost discovery order: first = %q", offer.Images[0])
	}
}

func TestScrapeOffer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oferti/spa-weekend" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(offerFixture))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	offer, err := c.ScrapeOffer(context.Background(), "spa-weekend")
	if err != nil {
		t.Fatalf("ScrapeOffer() returned unexpected error: %v", err)
	}
	if !offer.OK {
		t.Error("ScrapeOffer() OK = false, want true")
	}
	if offer.URL != ts.URL+"/oferti/spa-weekend" {
		t.Errorf("ScrapeOffer() URL = %q", offer.URL)
	}
	if offer.Title != "Спа уикенд за двама в хотел Панорама" {
		t.Errorf("ScrapeOffer() Title = %q", offer.Title)
	}
	if offer.Price == nil || *offer.Price != 130 {
		t.Errorf("ScrapeOffer() Price = %v, want 130", offer.Price)
	}
	if offer.Merchant != "Студио Релакс" {
		t.Errorf("ScrapeOffer() Merchant = %q", offer.Merchant)
	}
	if offer.Address != "гр. Велинград, ул. Еделвайс 4" {
		t.Errorf("ScrapeOffer() Address = %q", offer.Address)
	}
	if offer.Validity != "до 30 юни 2026г" {
		t.Errorf("ScrapeOffer() Validity = %q", offer.Validity)
	}
	if len(offer.Options) == 0 {
		t.Error("ScrapeOffer() returned no options")
	}
	if len(offer.Images) != 2 {
		t.Errorf("ScrapeOffer() returned %d images, want 2", len(offer.Images))
	}
}

func TestScrapeOffer_FetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if _, err := c.ScrapeOffer(context.Background(), "broken"); err == nil {
		t.Error("ScrapeOffer() should surface upstream errors to the caller")
	}
}
