package export

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/AngelCh415/recho/internal/models"
)

var ErrNotConfigured = errors.New("sink not configured")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Exporter pushes signed overview reports to an external sink.
type Exporter struct {
	c      HTTPClient
	url    string
	secret string
}

func New(c HTTPClient, sinkURL, secret string) *Exporter {
	return &Exporter{c: c, url: strings.TrimSpace(sinkURL), secret: secret}
}

func (e *Exporter) Configured() bool { return e != nil && e.url != "" && e.secret != "" }

type Receipt struct {
	Name      string `json:"name"`
	Bytes     int    `json:"bytes"`
	Signature string `json:"signature"`
	Status    int    `json:"status"`
}

// ReportName is <Client_Name>_Reddit_Report_<range label>, spaces as underscores.
func ReportName(clientName, rangeLabel string) string {
	name := strings.Join(strings.Fields(clientName), "_")
	if name == "" {
		name = "Report"
	}
	return name + "_Reddit_Report_" + strings.Join(strings.Fields(rangeLabel), "_")
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time.
func Verify(secret string, body []byte, sig string) bool {
	want, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func (e *Exporter) Export(ctx context.Context, rep models.OverviewReport, rangeLabel string) (Receipt, error) {
	if !e.Configured() {
		return Receipt{}, ErrNotConfigured
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode report: %w", err)
	}
	rc := Receipt{Name: ReportName(rep.Client.Name, rangeLabel), Bytes: len(b), Signature: Sign(e.secret, b)}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(b))
	if err != nil {
		return Receipt{}, fmt.Errorf("build export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", rc.Signature)
	req.Header.Set("X-Report-Name", rc.Name)
	resp, err := e.c.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("export %s: %w", rc.Name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	rc.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rc, fmt.Errorf("export sink non-2xx: %d", resp.StatusCode)
	}
	return rc, nil
}
