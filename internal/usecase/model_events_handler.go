package usecase

import (
	"context"
	"encoding/json"
	"path/filepath"

	"TrendPredictor/internal/domain/models"
	domrepo "TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/services/inference"
	"TrendPredictor/pkg/logger"
)

// ModelEventsHandler reloads the served model when a new artifact for the
// configured path is announced.
type ModelEventsHandler struct {
	topic     string
	modelPath string
	holder    *inference.Holder
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewModelEventsHandler(l *logger.Logger, topic, modelPath string, holder *inference.Holder, metrics domrepo.Metrics) *ModelEventsHandler {
	return &ModelEventsHandler{
		topic:     topic,
		modelPath: modelPath,
		holder:    holder,
		metrics:   metrics,
		log:       l.Component("model-events"),
	}
}

func (h *ModelEventsHandler) Topic() string { return h.topic }

// Handle ignores other event types and artifacts written elsewhere. A failed
// reload keeps the current model and returns the error for retry.
func (h *ModelEventsHandler) Handle(_ context.Context, b []byte) error {
	var ev models.ModelTrainedEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("model_event_decode")
		return nil
	}
	if ev.Type != models.EventModelTrained {
		return nil
	}
	if ev.ArtifactPath != "" && filepath.Clean(ev.ArtifactPath) != filepath.Clean(h.modelPath) {
		h.log.Info("ignoring artifact for another path",
			logger.String("run_id", ev.RunID), logger.String("path", ev.ArtifactPath))
		return nil
	}

	sc, err := h.holder.Reload(h.modelPath)
	if err != nil {
		h.metrics.RecordError("model_reload")
		h.log.Error("model reload failed", logger.String("run_id", ev.RunID), logger.Error(err))
		return err
	}
	h.metrics.RecordModelLoaded(true)
	h.log.Info("model reloaded",
		logger.String("run_id", ev.RunID),
		logger.String("version", sc.Version()),
		logger.Float64("accuracy", ev.Accuracy),
	)
	return nil
}
