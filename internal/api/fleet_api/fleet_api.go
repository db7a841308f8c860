package fleet_api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/BearBump/FleetWatch/internal/services/history"
	"github.com/BearBump/FleetWatch/internal/services/notify"
	"github.com/BearBump/FleetWatch/internal/services/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type ScheduleStore interface {
	LoadSchedule() ([]models.ScheduledFlightRecord, error)
	LoadLocations() (models.Locations, error)
}

type SubscriptionStore interface {
	AddSubscription(sub models.PushSubscription) (bool, error)
}

type Scraper interface {
	Scrape(ctx context.Context) (schedule.Result, error)
}

type Notifier interface {
	Dispatch(ctx context.Context, n models.Notification) notify.Result
}

type SourceSelector interface {
	Active() string
	Sources() []string
	SetActive(name string) error
}

type FleetView interface {
	Latest() (models.FleetSnapshot, bool)
}

type HistoryLookup interface {
	Lookup(ctx context.Context, hours int) (history.Result, error)
}

type Trigger interface {
	Trigger()
}

// Airport is the watched field used for the proximity view.
type Airport struct {
	ICAO string
	Lat  float64
	Lon  float64
}

// DefaultAirport is Hawarden.
var DefaultAirport = Airport{ICAO: "EGNR", Lat: 53.1744, Lon: -2.9779}

type Deps struct {
	Schedule      ScheduleStore
	Subscriptions SubscriptionStore
	Scraper       Scraper
	Notifier      Notifier
	Sources       SourceSelector
	Fleet         FleetView
	FleetTrigger  Trigger
	// History is nil when no enabled source keeps historic positions.
	History     HistoryLookup
	Airport     Airport
	VAPIDPublic string
}

type Options struct {
	AllowedOrigins []string
	// WriteLimitPerMinute caps scrape and notify calls per client IP. 0 means 10.
	WriteLimitPerMinute int
}

type Handler struct {
	d        Deps
	validate *validator.Validate
}

func New(d Deps) *Handler {
	if d.Airport.ICAO == "" {
		d.Airport = DefaultAirport
	}
	return &Handler{
		d:        d,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Router(opts Options) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.WriteLimitPerMinute <= 0 {
		opts.WriteLimitPerMinute = 10
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	limitWrites := httprate.Limit(opts.WriteLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r.Route("/api", func(r chi.Router) {
		r.Get("/schedule", h.getSchedule)
		r.Get("/locations", h.getLocations)
		r.Get("/fleet", h.getFleet)
		r.With(limitWrites).Get("/history", h.getHistory)
		r.Get("/source", h.getSource)
		r.Post("/source", h.postSource)
		r.Get("/vapid-public-key", h.getVAPIDPublicKey)
		r.Post("/subscribe", h.postSubscribe)
		r.With(limitWrites).Post("/scrape", h.postScrape)
		r.With(limitWrites).Post("/notify", h.postNotify)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v); err != nil {
		return errors.Wrap(err, "invalid json")
	}
	if err := h.validate.Struct(v); err != nil {
		return errors.Wrap(err, "invalid body")
	}
	return nil
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	recs, err := h.d.Schedule.LoadSchedule()
	if err != nil || recs == nil {
		recs = []models.ScheduledFlightRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) getLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.d.Schedule.LoadLocations()
	if err != nil || locs == nil {
		locs = models.Locations{}
	}
	writeJSON(w, http.StatusOK, locs)
}

func (h *Handler) postScrape(w http.ResponseWriter, r *http.Request) {
	res, err := h.d.Scraper.Scrape(r.Context())
	if err != nil {
		slog.Error("manual scrape", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "flights": res.Flights, "planes": res.Planes})
}

func (h *Handler) postSubscribe(w http.ResponseWriter, r *http.Request) {
	var sub models.PushSubscription
	if err := h.decode(w, r, &sub); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := h.d.Subscriptions.AddSubscription(sub)
	if err != nil {
		slog.Error("add subscription", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "could not store subscription")
		return
	}
	if added {
		slog.Info("subscription added", "endpoint", sub.Endpoint)
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

type notifyRequest struct {
	Title string `json:"title" validate:"max=200"`
	Body  string `json:"body" validate:"max=1000"`
	URL   string `json:"url" validate:"omitempty,max=2048"`
}

func (h *Handler) postNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := h.d.Notifier.Dispatch(r.Context(), models.Notification{Title: req.Title, Body: req.Body, URL: req.URL})
	writeJSON(w, http.StatusOK, res)
}

type sourceResponse struct {
	Source  string   `json:"source"`
	Sources []string `json:"sources"`
}

func (h *Handler) getSource(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sourceResponse{Source: h.d.Sources.Active(), Sources: h.d.Sources.Sources()})
}

type sourceRequest struct {
	Source string `json:"source" validate:"required"`
}

func (h *Handler) postSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.d.Sources.SetActive(req.Source); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Info("active source changed", "source", req.Source)
	if h.d.FleetTrigger != nil {
		h.d.FleetTrigger.Trigger()
	}
	writeJSON(w, http.StatusOK, sourceResponse{Source: h.d.Sources.Active(), Sources: h.d.Sources.Sources()})
}

func (h *Handler) getVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if h.d.VAPIDPublic == "" {
		writeError(w, http.StatusServiceUnavailable, "push is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.d.VAPIDPublic})
}
