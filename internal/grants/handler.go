package grants

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/identity"
	"github.com/audithub/audithub/internal/platform/httpx"
)

// DenialRecorder counts authorization denials for operators.
type DenialRecorder interface {
	PolicyDenied(reason string)
}

// Handler wires HTTP endpoints for grant synchronization.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	denials   DenialRecorder
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, denials DenialRecorder) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), denials: denials}
}

func (h *Handler) deny(reason string) {
	if h.denials != nil {
		h.denials.PolicyDenied(reason)
	}
}

// MountRoutes registers grant routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/get", h.getGrants)
	r.Post("/set", h.setGrants)
}

type grantsGetRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	HotelID string `json:"hotel_id" validate:"required,uuid"`
}

type grantsSetRequest struct {
	UserID  string   `json:"user_id" validate:"required,uuid"`
	HotelID string   `json:"hotel_id" validate:"required,uuid"`
	AreaIDs []string `json:"area_ids" validate:"dive,uuid"`
}

func (h *Handler) getGrants(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	var req grantsGetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	userID := uuid.MustParse(req.UserID)
	hotelID := uuid.MustParse(req.HotelID)

	if decision := authz.Authorize(caller, authz.ActionReadGrants, authz.Target{ID: userID, HotelID: hotelID}); !decision.Allowed {
		h.deny(decision.Reason)
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrForbidden, decision.Reason))
		return
	}

	areaIDs, err := h.service.List(r.Context(), userID, hotelID)
	if err != nil {
		h.logger.Error("list grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"area_ids": areaIDs})
}

func (h *Handler) setGrants(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	var req grantsSetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	userID := uuid.MustParse(req.UserID)
	hotelID := uuid.MustParse(req.HotelID)
	areaIDs := make([]uuid.UUID, 0, len(req.AreaIDs))
	for _, raw := range req.AreaIDs {
		areaIDs = append(areaIDs, uuid.MustParse(raw))
	}

	if decision := authz.Authorize(caller, authz.ActionWriteGrants, authz.Target{ID: userID, HotelID: hotelID}); !decision.Allowed {
		h.deny(decision.Reason)
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrForbidden, decision.Reason))
		return
	}

	count, err := h.service.Replace(r.Context(), userID, hotelID, areaIDs)
	if err != nil {
		h.logger.Error("replace grants",
			slog.String("user_id", req.UserID),
			slog.String("hotel_id", req.HotelID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"count": count})
}
