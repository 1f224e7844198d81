package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/audithub/audithub/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOrderingNormalize re-sequences one template's questions.
	TaskOrderingNormalize = "ordering:normalize"
	// TaskOrderingSweep re-sequences every template.
	TaskOrderingSweep = "ordering:sweep"
)

// NormalizeOrderPayload identifies the template to re-sequence.
type NormalizeOrderPayload struct {
	TemplateID uuid.UUID `json:"template_id"`
}

// NewNormalizeOrderTask constructs an Asynq task for one template.
func NewNormalizeOrderTask(templateID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(NormalizeOrderPayload{TemplateID: templateID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderingNormalize, data), nil
}

// NewOrderingSweepTask constructs the nightly sweep task.
func NewOrderingSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOrderingSweep, nil)
}

// OrderNormalizer is the ordering service surface the worker needs.
type OrderNormalizer interface {
	Normalize(ctx context.Context, templateID uuid.UUID) (int, error)
	NormalizeAll(ctx context.Context) (int, error)
}

// NewNormalizeOrderHandler processes TaskOrderingNormalize tasks.
func NewNormalizeOrderHandler(svc OrderNormalizer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NormalizeOrderPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track("ordering_normalize")
		updated, err := svc.Normalize(ctx, payload.TemplateID)
		if err := tracker.End(err); err != nil {
			logger.Error("normalize order job", slog.String("template_id", payload.TemplateID.String()), slog.Any("error", err))
			return err
		}
		logger.Info("normalize order job", slog.String("template_id", payload.TemplateID.String()), slog.Int("updated", updated))
		return nil
	}
}

// NewOrderingSweepHandler processes TaskOrderingSweep tasks.
func NewOrderingSweepHandler(svc OrderNormalizer, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("ordering_sweep")
		updated, err := svc.NormalizeAll(ctx)
		if err := tracker.End(err); err != nil {
			logger.Error("ordering sweep job", slog.Any("error", err))
			return err
		}
		logger.Info("ordering sweep job", slog.Int("updated", updated))
		return nil
	}
}
