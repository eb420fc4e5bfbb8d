package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartrisk/form"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

const maxBodyBytes = 64 << 10

// Handlers serves the prediction API. The inference context is shared
// read-only by every request.
type Handlers struct {
	inference *ml.InferenceContext
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewHandlers(inference *ml.InferenceContext, metrics *monitoring.Metrics, logger *zap.Logger, origins []string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		inference: inference,
		metrics:   metrics,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origins, origin)
			},
		},
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/form", h.handleForm)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/ws/predict", h.handlePredictSession)
}

type healthResponse struct {
	Status              string `json:"status"`
	PredictionAvailable bool   `json:"prediction_available"`
	Reason              string `json:"reason,omitempty"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", PredictionAvailable: h.inference.Available()}
	if !resp.PredictionAvailable {
		resp.Reason = h.inference.Err().Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// formResponse describes the widgets a client should render. When the
// artifacts are missing only the message is meant to be shown.
type formResponse struct {
	PredictionAvailable bool           `json:"prediction_available"`
	Message             string         `json:"message,omitempty"`
	Widgets             form.Catalogue `json:"widgets"`
	Defaults            form.Input     `json:"defaults"`
}

func (h *Handlers) formResponse() formResponse {
	resp := formResponse{
		PredictionAvailable: h.inference.Available(),
		Widgets:             form.Widgets(),
		Defaults:            form.DefaultInput(),
	}
	if !resp.PredictionAvailable {
		resp.Message = form.UnavailableMessage
	}
	return resp
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.formResponse())
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.metrics.ObservePrediction(monitoring.OutcomeRejected, 0)
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large", err.Error())
		return
	}
	in, err := decodeInput(body)
	if err != nil {
		h.metrics.ObservePrediction(monitoring.OutcomeRejected, 0)
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.evaluate(r.Context(), in)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// evaluate is shared by the REST and WebSocket front-ends.
func (h *Handlers) evaluate(ctx context.Context, in form.Input) (form.Result, error) {
	start := time.Now()
	result, err := form.Evaluate(ctx, h.inference, in)
	elapsed := time.Since(start)

	requestID := GetRequestID(ctx)
	if err != nil {
		outcome := outcomeFor(err)
		h.metrics.ObservePrediction(outcome, elapsed)
		h.logger.Warn("prediction failed",
			zap.String("request_id", requestID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return form.Result{}, err
	}

	outcome := monitoring.OutcomeHealthy
	if result.Label == ml.LabelDisease {
		outcome = monitoring.OutcomeDisease
	}
	h.metrics.ObservePrediction(outcome, elapsed)
	h.logger.Debug("prediction",
		zap.String("request_id", requestID),
		zap.Int("label", result.Label),
		zap.Float64("probability", result.Probability),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func decodeInput(body []byte) (form.Input, error) {
	var in form.Input
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return form.Input{}, err
	}
	return in, nil
}

func isInputError(err error) bool {
	return errors.Is(err, ml.ErrUnknownLabel) ||
		errors.Is(err, ml.ErrMissingField) ||
		errors.Is(err, form.ErrOutOfRange)
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ml.ErrPredictionUnavailable):
		return monitoring.OutcomeUnavailable
	case isInputError(err):
		return monitoring.OutcomeRejected
	default:
		return monitoring.OutcomeError
	}
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ml.ErrPredictionUnavailable):
		return http.StatusServiceUnavailable, "prediction unavailable"
	case isInputError(err):
		return http.StatusBadRequest, "invalid form input"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "prediction timed out"
	default:
		return http.StatusInternalServerError, "prediction failed"
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
