package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/recho/internal/attribution"
	"github.com/AngelCh415/recho/internal/clients"
	"github.com/AngelCh415/recho/internal/export"
	"github.com/AngelCh415/recho/internal/ingest"
	"github.com/AngelCh415/recho/internal/models"
	"github.com/AngelCh415/recho/internal/report"
	"github.com/AngelCh415/recho/internal/utils"
)

// Pinger is a backing service /readyz checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Log         *slog.Logger
	Reports     *report.Service
	Clients     *clients.Registry
	Datastore   ingest.Datastore
	Cache       Pinger
	Exporter    *export.Exporter
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Now         func() time.Time
}

type router struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}
	rt := &router{Deps: d}

	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", rt.ready)
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.Get("/clients", rt.listClients)
	mux.Route("/clients/{clientID}", func(r chi.Router) {
		r.Get("/", rt.getClient)
		r.Get("/overview", tab(rt, rt.Reports.Overview))
		r.Get("/attribution", tab(rt, rt.Reports.Attribution))
		r.Get("/brand", tab(rt, rt.Reports.Brand))
		r.Get("/paid", tab(rt, rt.Reports.Paid))
		r.Get("/organic", tab(rt, rt.Reports.Organic))
		r.Get("/subreddit", tab(rt, rt.Reports.Subreddit))
		r.Get("/accounts", tab(rt, rt.Reports.Accounts))
		r.Get("/seo-geo", tab(rt, rt.Reports.SEOGEO))
		r.Post("/snapshots", rt.insertSnapshot)
		r.Post("/export", rt.export)
	})
	mux.Get("/datastore/ping", rt.pingDatastore)

	mux.Route("/attribution", func(r chi.Router) {
		r.Post("/lift", rt.lift)
		r.Post("/enhanced", rt.enhanced)
		r.Post("/spikes", rt.spikes)
	})

	return mux
}

const readyTimeout = 2 * time.Second

// ready fails when the datastore or the report cache cannot be reached.
func (rt *router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if rt.Datastore != nil {
		if _, err := rt.Datastore.Ping(ctx); err != nil {
			rt.notReady(w, r, "datastore", err)
			return
		}
	}
	if rt.Cache != nil {
		if err := rt.Cache.Ping(ctx); err != nil {
			rt.notReady(w, r, "cache", err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

func (rt *router) notReady(w http.ResponseWriter, r *http.Request, dep string, err error) {
	rt.Log.Warn("not ready",
		slog.String("dep", dep),
		slog.String("rid", utils.RID(r.Context())),
		slog.String("err", err.Error()))
	http.Error(w, dep+" unavailable", http.StatusServiceUnavailable)
}

func (rt *router) listClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rt.Clients.List())
}

func (rt *router) getClient(w http.ResponseWriter, r *http.Request) {
	c, err := rt.Clients.Get(chi.URLParam(r, "clientID"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

// tab adapts a report builder into a handler reading ?range=&from=&to=.
func tab[T any](rt *router, build func(ctx context.Context, clientID string, dr models.DateRange) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dr, err := rt.dateRange(r)
		if err != nil {
			rt.fail(w, r, err)
			return
		}
		out, err := build(r.Context(), chi.URLParam(r, "clientID"), dr)
		if err != nil {
			rt.fail(w, r, err)
			return
		}
		writeJSON(w, out)
	}
}

func (rt *router) dateRange(r *http.Request) (models.DateRange, error) {
	q := r.URL.Query()
	return report.ResolveRange(q.Get("range"), q.Get("from"), q.Get("to"), rt.Now())
}

type snapshotRequest struct {
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
	TotalTraffic     float64 `json:"total_traffic" validate:"gte=0"`
	TotalConversions float64 `json:"total_conversions" validate:"gte=0"`
	Revenue          float64 `json:"revenue" validate:"gte=0"`
	BlendedROAS      float64 `json:"blended_roas" validate:"gte=0"`
	KarmaGrowth      float64 `json:"karma_growth"`
}

func (rt *router) insertSnapshot(w http.ResponseWriter, r *http.Request) {
	c, err := rt.Clients.Get(chi.URLParam(r, "clientID"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	var req snapshotRequest
	if err := decodeJSONBody(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	if rt.Datastore == nil {
		http.Error(w, "datastore not configured", http.StatusBadGateway)
		return
	}
	d, _ := time.Parse("2006-01-02", req.Date)
	snap := models.OverviewSnapshot{
		ClientID:         c.ID,
		Date:             d,
		TotalTraffic:     req.TotalTraffic,
		TotalConversions: req.TotalConversions,
		Revenue:          req.Revenue,
		BlendedROAS:      req.BlendedROAS,
		KarmaGrowth:      req.KarmaGrowth,
	}
	if err := rt.Datastore.InsertOverview(r.Context(), snap); err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, snap)
}

func (rt *router) pingDatastore(w http.ResponseWriter, r *http.Request) {
	if rt.Datastore == nil {
		http.Error(w, "datastore not configured", http.StatusBadGateway)
		return
	}
	n, err := rt.Datastore.Ping(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "rows": n})
}

func (rt *router) export(w http.ResponseWriter, r *http.Request) {
	dr, err := rt.dateRange(r)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rep, err := rt.Reports.Overview(r.Context(), chi.URLParam(r, "clientID"), dr)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rc, err := rt.Exporter.Export(r.Context(), rep, report.Label(dr))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, rc)
}

// Series values are capped at 1e15 so window means stay finite.

type liftRequest struct {
	Baseline []float64 `json:"baseline" validate:"max=10000,dive,gte=-1e15,lte=1e15"`
	Spike    []float64 `json:"spike" validate:"max=10000,dive,gte=-1e15,lte=1e15"`
}

type enhancedRequest struct {
	Baseline            []float64                 `json:"baseline" validate:"max=10000,dive,gte=-1e15,lte=1e15"`
	Spike               []float64                 `json:"spike" validate:"max=10000,dive,gte=-1e15,lte=1e15"`
	Channels            []models.ChannelBreakdown `json:"channels" validate:"max=500,dive"`
	DirectRedditTraffic float64                   `json:"direct_reddit_traffic" validate:"gte=0,lte=1e15"`
	TotalRevenue        float64                   `json:"total_revenue" validate:"gte=0,lte=1e15"`
}

type spikesRequest struct {
	Values    []float64 `json:"values" validate:"max=10000,dive,gte=-1e15,lte=1e15"`
	Threshold *float64  `json:"threshold" validate:"omitempty,gt=0,lte=1000"`
}

func (rt *router) lift(w http.ResponseWriter, r *http.Request) {
	var req liftRequest
	if err := decodeJSONBody(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, rt.Reports.Engine().ComputeInferredLift(req.Baseline, req.Spike))
}

func (rt *router) enhanced(w http.ResponseWriter, r *http.Request) {
	var req enhancedRequest
	if err := decodeJSONBody(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, rt.Reports.Engine().ComputeEnhancedAttribution(req.Baseline, req.Spike, req.Channels, req.DirectRedditTraffic, req.TotalRevenue))
}

func (rt *router) spikes(w http.ResponseWriter, r *http.Request) {
	var req spikesRequest
	if err := decodeJSONBody(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	threshold := attribution.DefaultSpikeThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	writeJSON(w, map[string]any{"indices": attribution.DetectSpikes(req.Values, threshold)})
}

// fail maps domain errors onto status codes; anything unrecognised is an upstream failure.
func (rt *router) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadGateway
	var bad *badRequestError
	switch {
	case errors.As(err, &bad), errors.Is(err, report.ErrUnknownRange):
		code = http.StatusBadRequest
	case errors.Is(err, clients.ErrUnknownClient):
		code = http.StatusNotFound
	}
	if code == http.StatusBadGateway {
		rt.Log.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("rid", utils.RID(r.Context())),
			slog.String("err", err.Error()))
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, http.StatusOK, v) }

// writeJSONStatus marshals before writing headers; values that cannot be
// encoded (NaN, Inf) answer 500.
func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	b, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(b, '\n'))
}
