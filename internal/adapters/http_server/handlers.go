package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"shelterline/internal/app"
	"shelterline/internal/domain"
)

type Handlers struct {
	Queue    *app.QueueBuilder
	Disp     *app.Dispatcher
	Tracker  *app.Tracker
	Demand   *app.Estimator
	Hosts    domain.HostDirectory
	BatchCap int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/dispatch/run", h.runDispatch)
	s.mux.Post("/v1/dispatch/escalate", h.runEscalation)
	s.mux.Post("/v1/hosts/{id}/call", h.callHost)
	s.mux.Patch("/v1/hosts/{id}/policy", h.updatePolicy)
	s.mux.Get("/v1/pending", h.pendingCounts)
	s.mux.Post("/v1/sessions", h.createSession)
	s.mux.Post("/v1/sessions/{id}/events", h.sessionEvent)
	s.mux.Get("/v1/sessions/{id}", h.getSession)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeEngineErr maps engine sentinel errors onto problem responses.
func writeEngineErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrAlreadyTerminal):
		writeProblem(w, http.StatusConflict, "Session Terminal", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid Transition", err.Error())
	case errors.Is(err, domain.ErrCycleInProgress):
		writeProblem(w, http.StatusConflict, "Cycle In Progress", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error())
	}
}

// ---- dispatch ----

type dispatchRequest struct {
	Cap int `json:"cap,omitempty"` // 0 = configured batch cap
}

func (h *Handlers) runDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	}
	capLimit := req.Cap
	if capLimit <= 0 {
		capLimit = h.BatchCap
	}

	queue, err := h.Queue.BuildQueue(r.Context(), time.Now())
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	rep, err := h.Disp.Dispatch(r.Context(), queue, capLimit)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) runEscalation(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	capLimit := req.Cap
	if capLimit <= 0 {
		capLimit = h.BatchCap
	}

	queue, err := h.Queue.BuildEscalationQueue(r.Context())
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	rep, err := h.Disp.Dispatch(r.Context(), queue, capLimit)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handlers) callHost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	host, err := h.Hosts.GetHost(r.Context(), id)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	if !host.Callable() {
		writeProblem(w, http.StatusUnprocessableEntity, "Not Callable", domain.ErrNoPhone.Error())
		return
	}
	// One-element queue: the demand pre-check does not apply.
	rep, err := h.Disp.Dispatch(r.Context(), []domain.Host{host}, 1)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ---- host policy ----

type policyRequest struct {
	Frequency domain.CallFrequency `json:"frequency"`
}

func (h *Handlers) updatePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if !req.Frequency.Valid() {
		writeProblem(w, http.StatusBadRequest, "Invalid Frequency", "frequency must be weekly, biweekly or desperate")
		return
	}
	if err := h.Hosts.UpdatePolicy(r.Context(), id, req.Frequency); err != nil {
		writeEngineErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- demand ----

func (h *Handlers) pendingCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Demand.PendingCounts(r.Context(), time.Now())
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// ---- sessions ----

type createSessionRequest struct {
	Phone     string               `json:"phone"`
	HostID    *int64               `json:"host_id,omitempty"`
	Direction domain.CallDirection `json:"direction"`
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if req.Phone == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "phone is required")
		return
	}
	if req.Direction != domain.DirectionInbound && req.Direction != domain.DirectionOutbound {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "direction must be inbound or outbound")
		return
	}
	s, err := h.Tracker.StartSession(r.Context(), req.Phone, req.HostID, req.Direction)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(s))
}

type eventRequest struct {
	Event string `json:"event"`
	Data  struct {
		Menu               string `json:"menu,omitempty"`
		Beds               int    `json:"beds,omitempty"`
		AcceptsCouples     bool   `json:"accepts_couples,omitempty"`
		PendingCouples     int    `json:"pending_couples,omitempty"`
		PendingIndividuals int    `json:"pending_individuals,omitempty"`
	} `json:"data"`
}

func (h *Handlers) sessionEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	ev := domain.CallEvent{
		SessionID:          chi.URLParam(r, "id"),
		Kind:               domain.EventKind(req.Event),
		Menu:               domain.MenuSelection(req.Data.Menu),
		Beds:               req.Data.Beds,
		AcceptsCouples:     req.Data.AcceptsCouples,
		PendingCouples:     req.Data.PendingCouples,
		PendingIndividuals: req.Data.PendingIndividuals,
	}
	s, err := h.Tracker.Apply(r.Context(), ev)
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Tracker.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

type sessionResponse struct {
	ID             string                `json:"id"`
	Phone          string                `json:"phone"`
	HostID         *int64                `json:"host_id,omitempty"`
	Direction      domain.CallDirection  `json:"direction"`
	Menu           *domain.MenuSelection `json:"menu_selection,omitempty"`
	Status         domain.SessionStatus  `json:"status"`
	BedsOffered    *int                  `json:"beds_offered,omitempty"`
	AcceptsCouples *bool                 `json:"accepts_couples,omitempty"`
	GuestsAssigned int                   `json:"guests_assigned"`
}

func sessionView(s domain.CallSession) sessionResponse {
	return sessionResponse{
		ID:             s.ID,
		Phone:          s.Phone,
		HostID:         s.HostID,
		Direction:      s.Direction,
		Menu:           s.Menu,
		Status:         s.Status,
		BedsOffered:    s.BedsOffered,
		AcceptsCouples: s.AcceptsCouples,
		GuestsAssigned: s.GuestsAssigned,
	}
}
