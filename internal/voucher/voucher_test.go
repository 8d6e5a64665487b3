package voucher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vgenov/rio-tools-server/internal/config"
	"github.com/vgenov/rio-tools-server/internal/fetch"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Status
	}{
		{
			name: "Valid",
			text: "Ваучер 12345 Статус: Валиден до 30.06.2026",
			want: StatusValid,
		},
		{
			name: "Invalid",
			text: "Ваучер 12345 Статус: Не валиден",
			want: StatusInvalid,
		},
		{
			name: "Case insensitive",
			text: "статус: валиден",
			want: StatusValid,
		},
		{
			name: "Neither phrase",
			text: "Моля, влезте в профила си",
			want: StatusUnknown,
		},
		{
			name: "Empty",
			text: "",
			want: StatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testChecker(checkURL string) *Checker {
	cfg := &config.Config{
		VoucherCheckURL: checkURL,
		UserAgent:       "test-agent/1.0",
		AcceptLanguage:  "bg,en;q=0.7",
		RequestTimeout:  5 * time.Second,
	}
	return New(cfg, fetch.New(cfg))
}

func TestCheck(t *testing.T) {
	var gotCookie, gotNumber, gotCode string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotCookie = r.Header.Get("Cookie")
		gotNumber = r.PostFormValue("number")
		gotCode = r.PostFormValue("code")
		w.Write([]byte("<html><body>Статус:   Валиден</body></html>"))
	}))
	defer ts.Close()

	checker := testChecker(ts.URL)
	result, err := checker.Check(context.Background(), Request{VoucherNumber: "12345", SecretCode: "s3cret"}, "session=abc")
	if err != nil {
		t.Fatalf("Check() returned unexpected error: %v", err)
	}

	if result.Status != StatusValid {
		t.Errorf("Check() status = %v, want valid", result.Status)
	}
	if result.VoucherNumber != "12345" {
		t.Errorf("Check() voucherNumber = %q, want 12345", result.VoucherNumber)
	}
	if !strings.Contains(result.Raw, "Статус: Валиден") {
		t.Errorf("Check() raw = %q, want collapsed status text", result.Raw)
	}
	if gotCookie != "session=abc" {
		t.Errorf("forwarded cookie = %q, want session=abc", gotCookie)
	}
	if gotNumber != "12345" || gotCode != "s3cret" {
		t.Errorf("forwarded form = %q/%q", gotNumber, gotCode)
	}
}

func TestCheck_RawSnippetTruncated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("я", 2000)))
	}))
	defer ts.Close()

	checker := testChecker(ts.URL)
	result, err := checker.Check(context.Background(), Request{VoucherNumber: "1", SecretCode: "2"}, "session=abc")
	if err != nil {
		t.Fatalf("Check() returned unexpected error: %v", err)
	}
	if got := len([]rune(result.Raw)); got != maxRawSnippet {
		t.Errorf("Check() raw snippet is %d runes, want %d", got, maxRawSnippet)
	}
	if result.Status != StatusUnknown {
		t.Errorf("Check() status = %v, want unknown", result.Status)
	}
}

func TestCheck_UpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "portal down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	checker := testChecker(ts.URL)
	if _, err := checker.Check(context.Background(), Request{VoucherNumber: "1", SecretCode: "2"}, "session=abc"); err == nil {
		t.Error("Check() should surface upstream failures")
	}
}
