package directory

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

// Handler wires HTTP endpoints for identity lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers identity routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listIdentities)
	r.Post("/", h.createIdentity)
	r.Post("/delete", h.deleteIdentity)
}

type createIdentityRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin manager auditor"`
	// HotelID is honored only for the super-role; admins always act within
	// their own hotel.
	HotelID string `json:"hotel_id" validate:"omitempty,uuid"`
}

type deleteIdentityRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	HotelID string `json:"hotel_id" validate:"required,uuid"`
}

func (h *Handler) createIdentity(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	var req createIdentityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	hotelID, err := h.targetHotel(caller, req.HotelID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	input := CreateIdentityInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     authz.NormalizeRole(req.Role),
		HotelID:  hotelID,
		FullName: req.FullName,
	}
	userID, err := h.service.CreateIdentity(r.Context(), caller, input)
	if err != nil {
		h.logger.Error("create identity", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"user_id": userID})
}

func (h *Handler) deleteIdentity(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	var req deleteIdentityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	err := h.service.DeleteIdentity(r.Context(), caller, uuid.MustParse(req.UserID), uuid.MustParse(req.HotelID))
	if err != nil {
		h.logger.Error("delete identity", slog.String("user_id", req.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}

func (h *Handler) listIdentities(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthenticated)
		return
	}

	hotelID, err := h.targetHotel(caller, r.URL.Query().Get("hotel_id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	users, err := h.service.ListIdentities(r.Context(), caller, hotelID)
	if err != nil {
		h.logger.Error("list identities", slog.String("hotel_id", hotelID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"users": users})
}

// targetHotel resolves the hotel an operation applies to. The caller's own
// profile wins over any client-declared hotel; only the super-role may pick
// a hotel explicitly.
func (h *Handler) targetHotel(caller authz.Caller, requested string) (uuid.UUID, error) {
	if caller.HotelID != nil {
		return *caller.HotelID, nil
	}
	if requested == "" {
		return uuid.Nil, fmt.Errorf("%w: hotel_id required", httpx.ErrValidation)
	}
	hotelID, err := uuid.Parse(requested)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: hotel_id must be a uuid", httpx.ErrValidation)
	}
	return hotelID, nil
}
