// Package api maps HTTP requests onto the scraper, voucher and calculator
// operations. Parameter validation happens before any network I/O; every
// upstream failure is caught here and answered as JSON, so one bad
// request can never take the process down.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vgenov/rio-tools-server/internal/calc"
	"github.com/vgenov/rio-tools-server/internal/config"
	"github.com/vgenov/rio-tools-server/internal/models"
	"github.com/vgenov/rio-tools-server/internal/rio"
	"github.com/vgenov/rio-tools-server/internal/scraper"
	"github.com/vgenov/rio-tools-server/internal/validator"
	"github.com/vgenov/rio-tools-server/internal/voucher"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// VoucherChecker abstracts the voucher forwarder for tests.
type VoucherChecker interface {
	Check(ctx context.Context, req voucher.Request, sessionCookie string) (voucher.Result, error)
}

type Server struct {
	cfg      *config.Config
	scraper  scraper.Scraper
	voucher  VoucherChecker
	urls     rio.URLs
	validate *validator.Validator
}

func New(cfg *config.Config, s scraper.Scraper, vc VoucherChecker) *Server {
	return &Server{
		cfg:      cfg,
		scraper:  s,
		voucher:  vc,
		urls:     rio.NewURLs(cfg.BaseURL),
		validate: validator.New(),
	}
}

// Routes builds the request mux. Anything unmatched falls through to a
// JSON 404.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /rio/search", s.handleSearch)
	mux.HandleFunc("GET /rio/top", s.handleTop)
	mux.HandleFunc("GET /rio/offer", s.handleOfferGet)
	mux.HandleFunc("POST /rio/offer", s.handleOfferPost)
	mux.HandleFunc("POST /rio/voucher/check", s.handleVoucherCheck)
	mux.HandleFunc("POST /calc/chatbot", handleCalc(s, calc.Chatbot))
	mux.HandleFunc("POST /calc/backoffice", handleCalc(s, calc.Backoffice))
	mux.HandleFunc("POST /calc/b2b", handleCalc(s, calc.B2B))
	mux.HandleFunc("POST /calc/seo", handleCalc(s, calc.SEO))
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

// decodeBody reads a JSON request body with a size cap matching the
// original service's 1 MiB limit.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseLimit resolves a caller-supplied limit: absent or unparseable
// input takes the default, negatives floor at zero and everything is
// clamped to the configured ceiling. An explicit zero stays zero.
func parseLimit(raw string, fallback, ceiling int) int {
	limit := fallback
	if raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

type searchResponse struct {
	OK       bool           `json:"ok"`
	Count    int            `json:"count"`
	City     string         `json:"city"`
	Category string         `json:"category"`
	Deals    []models.Offer `json:"deals"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	city := q.Get("city")
	category := q.Get("category")
	limit := parseLimit(q.Get("limit"), s.cfg.DefaultSearchLimit, s.cfg.MaxLimit)
	// The upstream site paginates by infinite scroll; "page" is accepted
	// for compatibility but has no effect.
	_ = q.Get("page")

	listURL := s.urls.BuildListURL(city, category)
	deals, err := s.scraper.ScrapeList(r.Context(), listURL, scraper.ListOptions{Limit: limit, Keyword: q.Get("q")})
	if err != nil {
		slog.Error("Search scrape failed", "url", listURL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deals == nil {
		deals = []models.Offer{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		OK:       true,
		Count:    len(deals),
		City:     rio.NormalizeCity(city),
		Category: rio.NormalizeCategory(category),
		Deals:    deals,
	})
}

type topResponse struct {
	OK    bool           `json:"ok"`
	Deals []models.Offer `json:"deals"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseLimit(q.Get("limit"), s.cfg.DefaultTopLimit, s.cfg.MaxLimit)

	listURL := s.urls.BuildListURL(q.Get("city"), q.Get("category"))
	deals, err := s.scraper.ScrapeList(r.Context(), listURL, scraper.ListOptions{Limit: limit})
	if err != nil {
		slog.Error("Top scrape failed", "url", listURL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if deals == nil {
		deals = []models.Offer{}
	}

	writeJSON(w, http.StatusOK, topResponse{OK: true, Deals: deals})
}

type offerResponse struct {
	OK    bool         `json:"ok"`
	Offer models.Offer `json:"offer"`
}

func (s *Server) handleOfferGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	urlOrID := q.Get("url")
	if urlOrID == "" {
		urlOrID = q.Get("id")
	}
	if urlOrID == "" {
		writeError(w, http.StatusBadRequest, "Provide ?url= or ?id=")
		return
	}
	s.serveOffer(w, r, urlOrID)
}

func (s *Server) handleOfferPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
		ID  string `json:"id"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	urlOrID := body.URL
	if urlOrID == "" {
		urlOrID = body.ID
	}
	if urlOrID == "" {
		writeError(w, http.StatusBadRequest, "Provide url or id")
		return
	}
	s.serveOffer(w, r, urlOrID)
}

func (s *Server) serveOffer(w http.ResponseWriter, r *http.Request, urlOrID string) {
	offer, err := s.scraper.ScrapeOffer(r.Context(), urlOrID)
	if err != nil {
		slog.Error("Offer scrape failed", "input", urlOrID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, offerResponse{OK: true, Offer: offer})
}

type voucherResponse struct {
	OK            bool           `json:"ok"`
	VoucherNumber string         `json:"voucherNumber"`
	Status        voucher.Status `json:"status"`
	Raw           string         `json:"raw"`
}

func (s *Server) handleVoucherCheck(w http.ResponseWriter, r *http.Request) {
	var req voucher.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.ValidateStruct(req); err != nil {
		writeError(w, http.StatusBadRequest, "voucherNumber and secretCode are required")
		return
	}
	cookie := r.Header.Get("x-rio-cookie")
	if cookie == "" {
		writeError(w, http.StatusUnauthorized, "Missing x-rio-cookie header with a valid logged-in session for voucher portal")
		return
	}

	result, err := s.voucher.Check(r.Context(), req, cookie)
	if err != nil {
		slog.Error("Voucher check failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, voucherResponse{
		OK:            true,
		VoucherNumber: result.VoucherNumber,
		Status:        result.Status,
		Raw:           result.Raw,
	})
}

type calcResponse[Out any] struct {
	OK     bool `json:"ok"`
	Result Out  `json:"result"`
}

// handleCalc wraps one pure calculator function with decoding and input
// validation.
func handleCalc[In, Out any](s *Server, fn func(In) Out) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.validate.ValidateStruct(in); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, calcResponse[Out]{OK: true, Result: fn(in)})
	}
}
