package ordering

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/platform/httpx"
)

// Handler wires the maintenance endpoint for order normalization. The
// operation needs no elevated trust; authentication alone gates it.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ordering routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/normalize-order", h.normalize)
}

type normalizeRequest struct {
	TemplateID string `json:"template_id" validate:"required,uuid"`
}

func (h *Handler) normalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: malformed body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	updated, err := h.service.Normalize(r.Context(), uuid.MustParse(req.TemplateID))
	if err != nil {
		h.logger.Error("normalize order", slog.String("template_id", req.TemplateID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"updated": updated})
}
