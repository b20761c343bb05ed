// Package api exposes the ledger over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/sikndrR/fitnessApp/internal/auth"
	"github.com/sikndrR/fitnessApp/internal/domain"
	"github.com/sikndrR/fitnessApp/internal/identity"
)

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used to report store failures.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithStoreTimeout bounds the store work of each request.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// Handler coordinates HTTP requests with the ledger.
type Handler struct {
	ledger  *domain.Ledger
	logger  *log.Logger
	timeout time.Duration
}

// NewHandler builds a Handler.
func NewHandler(ledger *domain.Ledger, opts ...Option) *Handler {
	h := &Handler{
		ledger:  ledger,
		logger:  log.New(log.Writer(), "[api] ", log.LstdFlags|log.Lshortfile),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/register", h.register)
	mux.HandleFunc("GET /v1/dates", h.listDates)
	mux.HandleFunc("PUT /v1/dates/{date}", h.ensureDate)
	mux.HandleFunc("GET /v1/dates/{date}/summary", h.daySummary)
	mux.HandleFunc("GET /v1/dates/{date}/{category}", h.listEntries)
	mux.HandleFunc("PUT /v1/dates/{date}/{category}/{name}", h.upsertEntry)
	mux.HandleFunc("DELETE /v1/dates/{date}/{category}/{name}", h.removeEntry)
	mux.HandleFunc("GET /v1/goals", h.getGoals)
	mux.HandleFunc("PUT /v1/goals", h.setGoals)
	mux.HandleFunc("GET /v1/export", h.export)
	mux.HandleFunc("GET /healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	created, err := h.ledger.Register(ctx, session)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RegisterResponse{UserKey: session.Key, Created: created})
}

func (h *Handler) listDates(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerRead)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	dates, err := h.ledger.Dates(ctx, session)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DatesResponse{Dates: dates})
}

func (h *Handler) ensureDate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}
	date := h.resolveDate(r)
	ctx, cancel := h.storeContext(r)
	defer cancel()

	created, err := h.ledger.EnsureDate(ctx, session, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, EnsureDateResponse{Date: date, Created: created})
}

func (h *Handler) daySummary(w http.ResponseWriter, r *http.Request) {
	// Viewing a day creates its record, so the summary needs write access.
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	summary, err := h.ledger.DaySummary(ctx, session, h.resolveDate(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerRead)
	if !ok {
		return
	}
	category, err := domain.ParseCategory(r.PathValue("category"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	date := h.resolveDate(r)
	ctx, cancel := h.storeContext(r)
	defer cancel()

	entries, err := h.ledger.List(ctx, session, category, date)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EntriesResponse{Date: date, Category: string(category), Entries: entries})
}

func (h *Handler) upsertEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}
	category, err := domain.ParseCategory(r.PathValue("category"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req UpsertEntryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	attrs, err := req.Attributes()
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	entry, err := h.ledger.Upsert(ctx, session, category, h.resolveDate(r), r.PathValue("name"), attrs)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) removeEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}
	category, err := domain.ParseCategory(r.PathValue("category"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	if err := h.ledger.Remove(ctx, session, category, h.resolveDate(r), r.PathValue("name")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getGoals(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerRead)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	goals, err := h.ledger.Goals(ctx, session)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GoalsResponse{Goals: goals})
}

func (h *Handler) setGoals(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerWrite)
	if !ok {
		return
	}

	var req SetGoalsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	goals, err := req.Goals()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ctx, cancel := h.storeContext(r)
	defer cancel()
	if err := h.ledger.SetGoals(ctx, session, goals); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GoalsResponse{Goals: &goals})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r, auth.ScopeLedgerRead)
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(r)
	defer cancel()

	tree, err := h.ledger.Export(ctx, session)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExportResponse{UserKey: session.Key, Ledger: tree})
}

// session authorizes the request for scope and resolves the caller's ledger key.
// Write access implies read access.
func (h *Handler) session(w http.ResponseWriter, r *http.Request, scope string) (identity.Session, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return identity.Session{}, false
	}
	allowed := claims.HasScope(scope)
	if scope == auth.ScopeLedgerRead {
		allowed = allowed || claims.HasScope(auth.ScopeLedgerWrite)
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return identity.Session{}, false
	}
	session, err := identity.FromClaims(claims)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return identity.Session{}, false
	}
	return session, true
}

// resolveDate maps the "today" alias to the current UTC date.
func (h *Handler) resolveDate(r *http.Request) string {
	date := r.PathValue("date")
	if date == "today" {
		return h.ledger.Today()
	}
	return date
}

func (h *Handler) storeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Printf("store failure: %v", err)
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "the ledger store could not complete the request")
	default:
		h.logger.Printf("unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	return dec.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
