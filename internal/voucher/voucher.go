// Package voucher forwards merchant voucher checks to the external
// validation portal and classifies its free-text reply.
package voucher

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/vgenov/rio-tools-server/internal/config"
	"github.com/vgenov/rio-tools-server/internal/fetch"
	"github.com/vgenov/rio-tools-server/internal/util"
)

// Status is the classified outcome of a voucher check.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	// StatusUnknown covers every reply the classifier does not
	// recognize. The portal's wording is not under our control, so
	// unfamiliar text degrades here instead of erroring.
	StatusUnknown Status = "unknown"
)

const maxRawSnippet = 800

var (
	validRegex   = regexp.MustCompile(`(?i)Статус:\s*Валиден`)
	invalidRegex = regexp.MustCompile(`(?i)Статус:\s*Не валиден`)
)

// Request carries the merchant-supplied credentials for one check.
type Request struct {
	VoucherNumber string `json:"voucherNumber" validate:"required"`
	SecretCode    string `json:"secretCode" validate:"required"`
}

// Result is the classified status plus a truncated raw-text snippet for
// diagnostics.
type Result struct {
	VoucherNumber string
	Status        Status
	Raw           string
}

type Checker struct {
	fetch    *fetch.Client
	checkURL string
}

func New(cfg *config.Config, f *fetch.Client) *Checker {
	return &Checker{
		fetch:    f,
		checkURL: cfg.VoucherCheckURL,
	}
}

// Check forwards the voucher credentials and the caller's session cookie
// to the portal. The cookie is forwarded verbatim and never stored.
func (c *Checker) Check(ctx context.Context, req Request, sessionCookie string) (Result, error) {
	body, err := c.fetch.PostForm(ctx, c.checkURL,
		map[string]string{"number": req.VoucherNumber, "code": req.SecretCode},
		map[string]string{"cookie": sessionCookie})
	if err != nil {
		return Result{}, fmt.Errorf("voucher check against %s failed: %w", c.checkURL, err)
	}

	text := util.CollapseSpace(visibleText(body))
	return Result{
		VoucherNumber: req.VoucherNumber,
		Status:        Classify(text),
		Raw:           util.Truncate(text, maxRawSnippet),
	}, nil
}

// visibleText strips markup from the portal reply. A body that fails to
// parse as HTML is used as-is; the classifier only needs the phrases.
func visibleText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return doc.Find("body").Text()
}

// Classify maps the portal's reply text onto a status. Text matching
// neither phrase is "unknown", not an error.
func Classify(text string) Status {
	if invalidRegex.MatchString(text) {
		return StatusInvalid
	}
	if validRegex.MatchString(text) {
		return StatusValid
	}
	return StatusUnknown
}
