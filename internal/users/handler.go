package users

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/leadbox/internal/auth"
	"github.com/wolfman30/leadbox/internal/http/response"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// Handler handles HTTP requests for accounts and passwords
type Handler struct {
	svc       *Service
	repo      Repository
	validator *validation.Validator
	logger    *logging.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(svc *Service, repo Repository, v *validation.Validator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if v == nil {
		v = validation.New()
	}
	return &Handler{svc: svc, repo: repo, validator: v, logger: logger}
}

// Register handles POST /api/users/client/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	errs, err := validation.Run(r.Context(), &in,
		normalizeRegister,
		validation.StructCheck[RegisterInput](h.validator, registerMessages),
		emailAvailable(h.repo),
	)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return
	}

	user, err := h.svc.Register(r.Context(), &in)
	if err != nil {
		h.logger.Error("failed to register client", "error", err)
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, http.StatusCreated, "Client registered successfully. Please check your email to verify your account.", user)
}

// VerifyEmail handles GET /api/users/client/verify-email?token=
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		response.Fail(w, http.StatusBadRequest, "Verification token is required")
		return
	}
	user, already, err := h.svc.VerifyEmail(r.Context(), token)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if already {
		response.OK(w, http.StatusOK, "Email is already verified", user)
		return
	}
	response.OK(w, http.StatusOK, "Email verified successfully", user)
}

// ResendVerification handles POST /api/users/client/resend-verification
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	in, ok := h.resolveEmail(w, r)
	if !ok {
		return
	}
	if err := h.svc.ResendVerification(r.Context(), in.user); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, http.StatusOK, "Verification email sent successfully", nil)
}

// ClientLogin handles POST /api/users/client/login
func (h *Handler) ClientLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, auth.RoleClient)
}

// AdminLogin handles POST /api/users/admin/login
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, auth.RoleAdmin)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, role auth.Role) {
	var in LoginInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	errs, err := validation.Run(r.Context(), &in,
		normalizeLogin,
		validation.StructCheck[LoginInput](h.validator, loginMessages),
	)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return
	}

	result, err := h.svc.Login(r.Context(), in.Email, in.Password, role)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	h.logger.Info("login succeeded", "user_id", result.User.ID, "role", role)
	response.OK(w, http.StatusOK, "Login successful", result)
}

// Profile handles GET /api/users/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		response.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.svc.Profile(r.Context(), id.UserID)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, http.StatusOK, "", user)
}

// ListClients handles GET /api/users/admin/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		h.logger.Error("failed to list clients", "error", err)
		response.Error(w, h.logger, err)
		return
	}
	response.List(w, "", clients, len(clients))
}

// ForgotPassword handles POST /api/password/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := h.resolveEmail(w, r)
	if !ok {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), in.user); err != nil {
		h.logger.Error("forgot password failed", "error", err, "user_id", in.user.ID)
		response.Fail(w, http.StatusInternalServerError, "Failed to process password reset request")
		return
	}
	response.OK(w, http.StatusOK, "Password reset link sent to your email", nil)
}

// ResetPassword handles POST /api/password/reset-password/{token}
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in ResetInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	in.token = chi.URLParam(r, "token")

	errs, err := validation.Run(r.Context(), &in,
		resetTokenValid(h.svc),
		validation.StructCheck[ResetInput](h.validator, resetMessages),
	)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), in.userID, in.Password); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.OK(w, http.StatusOK, "Password has been reset successfully", nil)
}

func (h *Handler) resolveEmail(w http.ResponseWriter, r *http.Request) (*EmailInput, bool) {
	var in EmailInput
	if err := response.DecodeJSON(r, &in); err != nil {
		response.Error(w, h.logger, err)
		return nil, false
	}
	errs, err := validation.Run(r.Context(), &in,
		normalizeEmail,
		validation.StructCheck[EmailInput](h.validator, emailMessages),
		accountExists(h.repo),
	)
	if err != nil {
		response.Error(w, h.logger, err)
		return nil, false
	}
	if len(errs) > 0 {
		response.Invalid(w, errs)
		return nil, false
	}
	return &in, true
}
