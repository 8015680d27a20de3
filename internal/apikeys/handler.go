package apikeys

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/leadbox/internal/apperr"
	"github.com/wolfman30/leadbox/internal/http/response"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// Handler handles the admin API key endpoints
type Handler struct {
	svc     *Service
	repo    Repository
	clients ClientLookup
	logger  *logging.Logger
}

// NewHandler creates a new API key handler
func NewHandler(svc *Service, repo Repository, clients ClientLookup, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, repo: repo, clients: clients, logger: logger}
}

// Generate handles POST /api/apikey/{clientId}
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var in GenerateInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	in.clientID = chi.URLParam(r, "clientId")

	errs, err := validation.Run(r.Context(), &in,
		eligibleClient(h.clients, h.repo, h.svc.now),
		generateExpiry(h.svc.now),
	)
	if !h.passed(w, errs, err) {
		return
	}

	issued, err := h.svc.Generate(r.Context(), in.client.ID, in.At())
	if err != nil {
		response.Error(w, h.logger, apperr.Internal("Failed to generate API key", err))
		return
	}
	response.OK(w, http.StatusCreated, "API key generated successfully", issued)
}

// ListForClient handles GET /api/apikey/client/{clientId}
func (h *Handler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	if _, err := uuid.Parse(clientID); err != nil {
		response.Error(w, h.logger, ErrInvalidClientID)
		return
	}
	keys, err := h.svc.ListForClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("failed to list api keys", "error", err, "client_id", clientID)
		response.Error(w, h.logger, err)
		return
	}
	response.List(w, "", keys, len(keys))
}

// Toggle handles PATCH /api/apikey/{apiKeyId}
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	in := KeyInput{keyID: chi.URLParam(r, "apiKeyId")}
	errs, err := validation.Run(r.Context(), &in, existingKey(h.repo))
	if !h.passed(w, errs, err) {
		return
	}

	key, err := h.svc.Toggle(r.Context(), in.key)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	msg := "API key activated successfully"
	if key.Revoked {
		msg = "API key revoked successfully"
	}
	response.OK(w, http.StatusOK, msg, key)
}

// Regenerate handles PATCH /api/apikey/{apiKeyId}/regenerate
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var in KeyInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	in.keyID = chi.URLParam(r, "apiKeyId")

	errs, err := validation.Run(r.Context(), &in,
		existingKey(h.repo),
		keyExpiry(h.svc.now),
	)
	if !h.passed(w, errs, err) {
		return
	}

	issued, err := h.svc.Regenerate(r.Context(), in.key, in.At())
	if err != nil {
		response.Error(w, h.logger, apperr.Internal("Failed to regenerate API key", err))
		return
	}
	response.OK(w, http.StatusOK, "API key regenerated successfully", issued)
}

func (h *Handler) passed(w http.ResponseWriter, errs validation.Errors, err error) bool {
	if err != nil {
		response.Error(w, h.logger, err)
		return false
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return false
	}
	return true
}
