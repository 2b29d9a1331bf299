package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/store"
	"github.com/AngelCh415/recho/internal/utils"
)

// Datastore is where overview snapshots live. *store.MemoryStore and
// *RESTDatastore both satisfy it.
type Datastore interface {
	LatestOverview(ctx context.Context, clientID string) (models.OverviewSnapshot, error)
	InsertOverview(ctx context.Context, snap models.OverviewSnapshot) error
	QueryOverview(ctx context.Context, clientID string, from, to time.Time) ([]models.OverviewSnapshot, error)
	Ping(ctx context.Context) (int, error)
}

// RESTDatastore talks to a PostgREST-style endpoint (e.g. Supabase).
type RESTDatastore struct {
	c       HTTPClient
	base    string
	key     string
	backoff utils.Backoff
}

func NewRESTDatastore(c HTTPClient, baseURL, key string) *RESTDatastore {
	return &RESTDatastore{c: c, base: strings.TrimRight(baseURL, "/"), key: key, backoff: defaultBackoff}
}

// WithBackoff overrides the retry policy.
func (d *RESTDatastore) WithBackoff(b utils.Backoff) *RESTDatastore {
	d.backoff = b
	return d
}

// num accepts JSON numbers and numeric strings (postgres numeric columns
// come back as strings).
type num float64

func (n *num) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = num(f)
	return nil
}

type snapshotRow struct {
	ClientID         string `json:"client_id"`
	Date             string `json:"date"`
	TotalTraffic     num    `json:"total_traffic"`
	TotalConversions num    `json:"total_conversions"`
	Revenue          num    `json:"revenue"`
	BlendedROAS      num    `json:"blended_roas"`
	KarmaGrowth      num    `json:"karma_growth"`
}

func (r snapshotRow) snapshot() models.OverviewSnapshot {
	date, _ := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	return models.OverviewSnapshot{
		ClientID:         r.ClientID,
		Date:             date,
		TotalTraffic:     float64(r.TotalTraffic),
		TotalConversions: float64(r.TotalConversions),
		Revenue:          float64(r.Revenue),
		BlendedROAS:      float64(r.BlendedROAS),
		KarmaGrowth:      float64(r.KarmaGrowth),
	}
}

func (d *RESTDatastore) LatestOverview(ctx context.Context, clientID string) (models.OverviewSnapshot, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("client_id", "eq."+clientID)
	q.Set("order", "date.desc")
	q.Set("limit", "1")
	var rows []snapshotRow
	if err := DoJSONWithRetry(ctx, d.c, d.backoff, d.request(http.MethodGet, "overview_snapshots", q, nil), &rows); err != nil {
		return models.OverviewSnapshot{}, err
	}
	if len(rows) == 0 {
		return models.OverviewSnapshot{}, store.ErrNoSnapshot
	}
	return rows[0].snapshot(), nil
}

// QueryOverview lists a client's snapshots dated within [from, to], oldest first.
func (d *RESTDatastore) QueryOverview(ctx context.Context, clientID string, from, to time.Time) ([]models.OverviewSnapshot, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("client_id", "eq."+clientID)
	q.Add("date", "gte."+from.UTC().Format("2006-01-02"))
	q.Add("date", "lte."+to.UTC().Format("2006-01-02"))
	q.Set("order", "date.asc")
	var rows []snapshotRow
	if err := DoJSONWithRetry(ctx, d.c, d.backoff, d.request(http.MethodGet, "overview_snapshots", q, nil), &rows); err != nil {
		return nil, err
	}
	out := make([]models.OverviewSnapshot, len(rows))
	for i, r := range rows {
		out[i] = r.snapshot()
	}
	return out, nil
}

func (d *RESTDatastore) InsertOverview(ctx context.Context, snap models.OverviewSnapshot) error {
	body, err := json.Marshal(map[string]any{
		"client_id":         snap.ClientID,
		"date":              snap.Date.UTC().Format("2006-01-02"),
		"total_traffic":     snap.TotalTraffic,
		"total_conversions": snap.TotalConversions,
		"revenue":           snap.Revenue,
		"blended_roas":      snap.BlendedROAS,
		"karma_growth":      snap.KarmaGrowth,
	})
	if err != nil {
		return err
	}
	return DoJSONWithRetry(ctx, d.c, d.backoff, d.request(http.MethodPost, "overview_snapshots", nil, body), nil)
}

// Ping runs a one-row query against the clients table and reports the rows returned.
func (d *RESTDatastore) Ping(ctx context.Context) (int, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("limit", "1")
	var rows []json.RawMessage
	if err := DoJSONWithRetry(ctx, d.c, d.backoff, d.request(http.MethodGet, "clients", q, nil), &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (d *RESTDatastore) request(method, table string, q url.Values, body []byte) RequestFunc {
	u := d.base + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if d.key != "" {
			req.Header.Set("apikey", d.key)
			req.Header.Set("Authorization", "Bearer "+d.key)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Prefer", "return=minimal")
		}
		return req, nil
	}
}
