package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	BaseURL         string
	VoucherCheckURL string
	UserAgent       string
	AcceptLanguage  string

	RequestTimeout time.Duration
	RetryCount     int
	// Minimum spacing between outbound requests across the whole process.
	OutboundInterval time.Duration

	// HydrateConcurrency bounds in-flight detail fetches per list scrape.
	HydrateConcurrency int
	// MaxCandidates caps the discovered link set before filtering.
	MaxCandidates int
	// MaxLimit is the hard ceiling on caller-supplied limits.
	MaxLimit           int
	DefaultSearchLimit int
	DefaultTopLimit    int

	// AllowedDomains restricts which hosts the scraper will fetch from.
	// An empty list disables the check.
	AllowedDomains []string
}

func Load() (*Config, error) {
	// .env is optional; real deployments set env vars directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
		slog.Info("Defaulting to port", "port", port)
	}

	baseURL := os.Getenv("RIO_BASE_URL")
	if baseURL == "" {
		baseURL = "https://rio.bg"
	}

	voucherCheckURL := os.Getenv("RIO_VOUCHER_CHECK_URL")
	if voucherCheckURL == "" {
		voucherCheckURL = "https://www.rio.rockstar.bg/check-voucher.html"
	}

	userAgent := os.Getenv("RIO_USER_AGENT")
	if userAgent == "" {
		// The upstream site asks scrapers to identify themselves.
		userAgent = "RioToolsBot/1.0 (+contact: ops@example.com)"
	}

	requestTimeout := 15 * time.Second
	if v := os.Getenv("RIO_REQUEST_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RIO_REQUEST_TIMEOUT %q: %w", v, err)
		}
		requestTimeout = parsed
	}

	outboundInterval := 250 * time.Millisecond
	if v := os.Getenv("RIO_OUTBOUND_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RIO_OUTBOUND_INTERVAL %q: %w", v, err)
		}
		outboundInterval = parsed
	}

	retryCount, err := intEnv("RIO_RETRY_COUNT", 1)
	if err != nil {
		return nil, err
	}
	hydrateConcurrency, err := intEnv("RIO_HYDRATE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	maxCandidates, err := intEnv("RIO_MAX_CANDIDATES", 80)
	if err != nil {
		return nil, err
	}
	maxLimit, err := intEnv("RIO_MAX_LIMIT", 20)
	if err != nil {
		return nil, err
	}

	allowedDomains := []string{"rio.bg", "www.rio.bg", "rio.rockstar.bg", "www.rio.rockstar.bg"}
	if v, ok := os.LookupEnv("RIO_ALLOWED_DOMAINS"); ok {
		// Comma-separated hosts. Setting the variable to an empty string
		// disables the allowlist entirely.
		allowedDomains = splitDomains(v)
	}

	return &Config{
		Port:               port,
		BaseURL:            baseURL,
		VoucherCheckURL:    voucherCheckURL,
		UserAgent:          userAgent,
		AcceptLanguage:     "bg,en;q=0.7",
		RequestTimeout:     requestTimeout,
		RetryCount:         retryCount,
		OutboundInterval:   outboundInterval,
		HydrateConcurrency: hydrateConcurrency,
		MaxCandidates:      maxCandidates,
		MaxLimit:           maxLimit,
		DefaultSearchLimit: 10,
		DefaultTopLimit:    8,
		AllowedDomains:     allowedDomains,
	}, nil
}

func splitDomains(v string) []string {
	domains := []string{}
	for _, d := range strings.Split(v, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return parsed, nil
}
