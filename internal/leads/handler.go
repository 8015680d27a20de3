package leads

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/http/response"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

var tracer = otel.Tracer("leadbox.internal.leads")

const (
	channelDashboard = "dashboard"
	channelAPIKey    = "api_key"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo      Repository
	validator *validation.Validator
	obs       *metrics.Metrics
	logger    *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, v *validation.Validator, obs *metrics.Metrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if v == nil {
		v = validation.New()
	}
	return &Handler{
		repo:      repo,
		validator: v,
		obs:       obs,
		logger:    logger,
	}
}

// Create handles POST /api/leads
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, channelDashboard)
}

// Ingest handles POST /api/leads/ingest, authenticated by API key
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, channelAPIKey)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, channel string) {
	owner, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	in, ok := h.decode(w, r, owner.UserID,
		decodeBody,
		validation.StructCheck[Input](h.validator, fieldMessages),
		requireEmail,
	)
	if !ok {
		return
	}

	ctx, span := tracer.Start(r.Context(), "leads.create")
	defer span.End()
	span.SetAttributes(attribute.String("leadbox.channel", channel))

	lead := NewLead(owner.UserID, in)
	if err := h.repo.Create(ctx, lead); err != nil {
		span.RecordError(err)
		h.logger.Error("failed to create lead", "error", err, "owner_id", owner.UserID)
		response.Error(w, h.logger, err)
		return
	}
	h.obs.ObserveLeadWrite("create", channel)
	h.logger.Info("lead created", "lead_id", lead.ID, "owner_id", owner.UserID, "channel", channel, "api_key_id", owner.APIKeyID)
	response.OK(w, http.StatusCreated, "Lead created successfully", lead)
}

// List handles GET /api/leads
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, errs := parseListFilter(r)
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return
	}

	leads, err := h.repo.List(r.Context(), owner.UserID, filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "owner_id", owner.UserID)
		response.Error(w, h.logger, err)
		return
	}
	response.List(w, "", leads, len(leads))
}

// Get handles GET /api/leads/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	in, ok := h.resolve(w, r)
	if !ok {
		return
	}
	response.OK(w, http.StatusOK, "", in.Current())
}

// Update handles PUT /api/leads/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	in, ok := h.decode(w, r, owner.UserID,
		ownedLead(h.repo, chi.URLParam(r, "id")),
		decodeBody,
		validation.StructCheck[Input](h.validator, fieldMessages),
	)
	if !ok {
		return
	}

	upd, err := BuildUpdate(in.Current(), in)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	ctx, span := tracer.Start(r.Context(), "leads.update")
	defer span.End()
	span.SetAttributes(attribute.String("leadbox.lead_id", in.leadID))

	lead, err := h.repo.Update(ctx, owner.UserID, in.leadID, upd)
	if err != nil {
		span.RecordError(err)
		response.Error(w, h.logger, err)
		return
	}
	h.obs.ObserveLeadWrite("update", channelDashboard)
	h.logger.Info("lead updated", "lead_id", lead.ID, "owner_id", owner.UserID)
	response.OK(w, http.StatusOK, "Lead updated successfully", lead)
}

// Delete handles DELETE /api/leads/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	in, ok := h.resolve(w, r)
	if !ok {
		return
	}

	ctx, span := tracer.Start(r.Context(), "leads.delete")
	defer span.End()

	if err := h.repo.Delete(ctx, in.ownerID, in.leadID); err != nil {
		span.RecordError(err)
		response.Error(w, h.logger, err)
		return
	}
	h.obs.ObserveLeadWrite("delete", channelDashboard)
	h.logger.Info("lead deleted", "lead_id", in.leadID, "owner_id", in.ownerID)
	response.OK(w, http.StatusOK, "Lead deleted successfully", nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, ownerID string, checks ...validation.Check[Input]) (*Input, bool) {
	var raw map[string]json.RawMessage
	if err := response.DecodeJSON(r, &raw); err != nil {
		response.Error(w, h.logger, err)
		return nil, false
	}
	return h.run(r.Context(), w, NewInput(ownerID, raw), checks...)
}

// resolve runs only the ownership check for routes without a body.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*Input, bool) {
	owner, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return h.run(r.Context(), w, NewInput(owner.UserID, nil), ownedLead(h.repo, chi.URLParam(r, "id")))
}

func (h *Handler) run(ctx context.Context, w http.ResponseWriter, in *Input, checks ...validation.Check[Input]) (*Input, bool) {
	errs, err := validation.Run(ctx, in, checks...)
	if err != nil {
		response.Error(w, h.logger, err)
		return nil, false
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return nil, false
	}
	return in, true
}

func parseListFilter(r *http.Request) (ListFilter, validation.Errors) {
	var (
		filter ListFilter
		errs   validation.Errors
	)
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		filter.Status = Status(s)
		if !filter.Status.Valid() {
			errs.Add("status", fieldMessages["status"])
		}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxListLimit {
			errs.Add("limit", "Limit must be a number between 1 and "+strconv.Itoa(maxListLimit))
		}
		filter.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			errs.Add("offset", "Offset must be a non-negative number")
		}
		filter.Offset = n
	}
	return filter, errs
}
