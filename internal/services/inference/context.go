package inference

import (
	"fmt"
	"sync/atomic"
	"time"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/domain/service"
	"TrendPredictor/internal/services/forest"
)

// ServiceContext carries the loaded model. It is immutable once built;
// reloading produces a new context.
type ServiceContext struct {
	model    service.Classifier
	path     string
	loadedAt time.Time
	version  string
}

// NewServiceContext returns a context without a model.
func NewServiceContext() *ServiceContext { return &ServiceContext{} }

// WithModel returns a copy of c holding model. version tags cached responses.
func (c *ServiceContext) WithModel(model service.Classifier, path, version string) *ServiceContext {
	return &ServiceContext{model: model, path: path, loadedAt: time.Now().UTC(), version: version}
}

// LoadContext loads the forest at path. On failure the returned context has
// no model and the error explains why.
func LoadContext(path string) (*ServiceContext, error) {
	m, err := forest.Load(path)
	if err != nil {
		return NewServiceContext(), fmt.Errorf("load model %s: %w", path, err)
	}
	return NewServiceContext().WithModel(m, path, fmt.Sprintf("%s@%d", path, time.Now().UnixNano())), nil
}

// Model returns the loaded classifier or nil.
func (c *ServiceContext) Model() service.Classifier {
	if c == nil {
		return nil
	}
	return c.model
}

// Ready reports whether a model is loaded.
func (c *ServiceContext) Ready() bool { return c.Model() != nil }

// Path is the artifact the model was loaded from.
func (c *ServiceContext) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Version identifies the loaded model instance; empty without a model.
func (c *ServiceContext) Version() string {
	if c == nil {
		return ""
	}
	return c.version
}

// LoadedAt is when the model was attached.
func (c *ServiceContext) LoadedAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.loadedAt
}

// Predict runs Predict with the context's model.
func (c *ServiceContext) Predict(table models.FeatureTable, featureColumns []string) (models.Prediction, error) {
	return Predict(c.Model(), table, featureColumns)
}

// Holder publishes the current ServiceContext to concurrent readers.
type Holder struct {
	ptr atomic.Pointer[ServiceContext]
}

// NewHolder returns a Holder initialized with ctx, or an empty context if nil.
func NewHolder(ctx *ServiceContext) *Holder {
	h := &Holder{}
	if ctx == nil {
		ctx = NewServiceContext()
	}
	h.ptr.Store(ctx)
	return h
}

// Current returns the context in effect.
func (h *Holder) Current() *ServiceContext { return h.ptr.Load() }

// Swap installs ctx and returns the previous context.
func (h *Holder) Swap(ctx *ServiceContext) *ServiceContext { return h.ptr.Swap(ctx) }

// Reload loads path and installs the new context only on success.
func (h *Holder) Reload(path string) (*ServiceContext, error) {
	next, err := LoadContext(path)
	if err != nil {
		return h.Current(), err
	}
	h.Swap(next)
	return next, nil
}
