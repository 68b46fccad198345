package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"TrendPredictor/internal/domain/models"
	"TrendPredictor/internal/usecase"
	xhttp "TrendPredictor/pkg/http"
	xlogger "TrendPredictor/pkg/logger"
)

// Response headers describing where the prediction input came from.
const (
	HeaderDataSource   = "X-Data-Source"
	HeaderDataFallback = "X-Data-Fallback"
	HeaderCache        = "X-Cache"
)

// Predictor is the prediction use case as seen by the HTTP layer.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictRequest) (*usecase.PredictResult, error)
	Status() usecase.ModelStatus
}

// RunLister lists recorded training runs.
type RunLister interface {
	Runs(ctx context.Context, limit int) ([]models.TrainingRun, error)
}

// PredictEchoHandler serves the prediction API, health probe and landing page.
type PredictEchoHandler struct {
	logger    *xlogger.Logger
	predictor Predictor
	runs      RunLister
	staticDir string
	predictMW []echo.MiddlewareFunc
}

// NewPredictEchoHandler builds the handler. runs may be nil to disable
// /api/runs; predictMW wraps only POST /predict.
func NewPredictEchoHandler(logger *xlogger.Logger, predictor Predictor, runs RunLister, staticDir string, predictMW ...echo.MiddlewareFunc) *PredictEchoHandler {
	return &PredictEchoHandler{
		logger:    logger.Component("api"),
		predictor: predictor,
		runs:      runs,
		staticDir: staticDir,
		predictMW: predictMW,
	}
}

func (h *PredictEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/health", h.Health)
	e.POST("/predict", h.Predict, h.predictMW...)
	if h.runs != nil {
		e.GET("/api/runs", h.Runs)
	}
}

// Predict returns {date, prob_up} or {date, pred_up} for the latest complete
// feature row. The newest observation has no next-day price, so its label is
// undefined and the row is trimmed: date is therefore one day before the
// newest observation (yesterday for the synthetic series, which ends today).
// The probability still refers to the move from that date to the next day.
func (h *PredictEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predictor.Predict(c.Request().Context(), *req)
	if err != nil {
		return h.predictError(c, err)
	}

	hdr := c.Response().Header()
	hdr.Set(HeaderDataSource, res.Source)
	hdr.Set(HeaderDataFallback, strconv.FormatBool(res.Fallback))
	if res.Cached {
		hdr.Set(HeaderCache, "HIT")
	} else {
		hdr.Set(HeaderCache, "MISS")
	}
	return c.JSON(http.StatusOK, res.Prediction)
}

func (h *PredictEchoHandler) predictError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrModelUnavailable):
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("model not loaded").WithError(err))
	case errors.Is(err, models.ErrEmptyFeatureTable):
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("series too short to build features").
			WithParam("min_days", 5).WithError(err))
	case errors.Is(err, context.Canceled):
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_CANCELED", "", "request canceled", 499))
	default:
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("prediction failed").WithError(err))
	}
}

type healthResponse struct {
	Status       string     `json:"status"`
	ModelLoaded  bool       `json:"model_loaded"`
	ModelVersion string     `json:"model_version,omitempty"`
	LoadedAt     *time.Time `json:"loaded_at,omitempty"`
}

// Health reports liveness and which model, if any, is being served.
func (h *PredictEchoHandler) Health(c echo.Context) error {
	st := h.predictor.Status()
	resp := healthResponse{Status: "ok", ModelLoaded: st.Loaded}
	if st.Loaded {
		at := st.LoadedAt.UTC()
		resp.ModelVersion = st.Version
		resp.LoadedAt = &at
	}
	return c.JSON(http.StatusOK, resp)
}

// Index serves the static landing page when one is deployed.
func (h *PredictEchoHandler) Index(c echo.Context) error {
	page := filepath.Join(h.staticDir, "index.html")
	if h.staticDir == "" {
		return xhttp.NotFoundResponse(c, "index not available")
	}
	if _, err := os.Stat(page); err != nil {
		return xhttp.NotFoundResponse(c, "index not available")
	}
	return c.File(page)
}

// Runs lists recent training runs, newest first.
func (h *PredictEchoHandler) Runs(c echo.Context) error {
	req := &models.RunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	runs, err := h.runs.Runs(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("runs usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("list runs failed").WithError(err))
	}
	return xhttp.ListResponse(c, runs, int64(len(runs)))
}
