package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/reconcile"
	"servicedesk/backend/internal/service"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	log           logrus.FieldLogger
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, log logrus.FieldLogger) *API {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		log:           log,
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

var (
	anyStaff = []string{domain.RoleCashier, domain.RoleManager, domain.RoleAdmin}
	approver = []string{domain.RoleManager, domain.RoleAdmin}
)

func (a *API) Handler() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	router.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/login", a.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/denominations", a.requireAuth(a.handleDenominationCatalogue, anyStaff...)).Methods(http.MethodGet)

	api.HandleFunc("/settlements", a.requireAuth(a.handleListSettlements, anyStaff...)).Methods(http.MethodGet)
	api.HandleFunc("/settlements/today", a.requireAuth(a.handleOpenSettlement, anyStaff...)).Methods(http.MethodPost)
	api.HandleFunc("/settlements/{id}", a.requireAuth(a.handleGetSettlement, anyStaff...)).Methods(http.MethodGet)
	api.HandleFunc("/settlements/{id}/denominations", a.requireAuth(a.handleUpdateDenominations, anyStaff...)).Methods(http.MethodPut)
	api.HandleFunc("/settlements/{id}/notes", a.requireAuth(a.handleUpdateNotes, anyStaff...)).Methods(http.MethodPut)
	api.HandleFunc("/settlements/{id}/submit", a.requireAuth(a.handleSubmit, anyStaff...)).Methods(http.MethodPost)
	api.HandleFunc("/settlements/{id}/verify", a.requireAuth(a.handleVerify, approver...)).Methods(http.MethodPost)
	api.HandleFunc("/settlements/{id}/reject", a.requireAuth(a.handleReject, approver...)).Methods(http.MethodPost)

	return a.withMiddleware(router)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDenominationCatalogue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"currency":      a.service.Currency(),
		"denominations": a.service.Denominations(),
		"supported":     reconcile.SupportedCurrencies(),
	})
}

func (a *API) handleOpenSettlement(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	var req domain.SettlementOpenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	date := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := a.parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	settlement, err := a.service.CreateOrGet(r.Context(), actor.CompanyID, req.BranchID, date, actor.UserID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	query := r.URL.Query()

	filter := domain.SettlementFilter{
		BranchID: strings.TrimSpace(query.Get("branch_id")),
		Status:   domain.SettlementStatus(strings.ToUpper(strings.TrimSpace(query.Get("status")))),
		Page:     parsePositiveLimit(query.Get("page"), 1, 0),
		PageSize: parsePositiveLimit(query.Get("page_size"), 20, 100),
	}
	for name, dest := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			continue
		}
		parsed, err := a.parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New(name+" must be YYYY-MM-DD"))
			return
		}
		*dest = &parsed
	}

	page, err := a.service.List(r.Context(), actor.CompanyID, filter)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	settlement, err := a.service.GetByID(r.Context(), actor.CompanyID, mux.Vars(r)["id"])
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleUpdateDenominations(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	var req domain.DenominationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	settlement, err := a.service.UpdateDenominations(r.Context(), actor.CompanyID, mux.Vars(r)["id"], req.Counts)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	var req domain.NotesUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	settlement, err := a.service.UpdateNotes(r.Context(), actor.CompanyID, mux.Vars(r)["id"], req.Notes)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())
	settlement, err := a.service.SubmitSettlement(r.Context(), actor.CompanyID, mux.Vars(r)["id"], actor.UserID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	// Notes are optional, so is the body.
	var req domain.VerifyRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return
	}

	settlement, err := a.service.VerifySettlement(r.Context(), actor.CompanyID, mux.Vars(r)["id"], actor.UserID, req.Notes)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	var req domain.RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	settlement, err := a.service.RejectSettlement(r.Context(), actor.CompanyID, mux.Vars(r)["id"], actor.UserID, req.Reason)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlement": settlement})
}

func (a *API) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), a.service.Location())
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var stateErr *service.InvalidStateTransitionError
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &stateErr):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          stateErr.Error(),
			"current_status": stateErr.Current,
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err)
	default:
		if errors.Is(err, reconcile.ErrFetch) {
			a.log.WithError(err).Error("settlement totals could not be computed")
		}
		writeError(w, http.StatusInternalServerError, err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(startedAt).Milliseconds(),
		}).Info("http request")
	})
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return requestValidator.Struct(dest)
}

var requestValidator = newRequestValidator()

// newRequestValidator reports fields by their JSON names.
func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		first := invalid[0]
		msg := first.Field() + " is invalid"
		if first.Tag() == "required" {
			msg = first.Field() + " is required"
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": msg,
			"field": first.Field(),
		})
		return
	}
	writeError(w, http.StatusBadRequest, err)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the cause is logged by the caller or here.
	msg := err.Error()
	if status >= 500 {
		logrus.WithError(err).WithField("status", status).Error("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
