package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/amishk599/coldreach/internal/model"
	"github.com/amishk599/coldreach/internal/pipeline"
)

const maxRequestBytes = 1 << 20

// Handlers serves the generate and health endpoints.
type Handlers struct {
	gen     Generator
	counter Counter
	logger  *slog.Logger
}

// NewHandlers wires the pipeline and the portfolio counter into HTTP handlers.
func NewHandlers(gen Generator, counter Counter, logger *slog.Logger) *Handlers {
	return &Handlers{gen: gen, counter: counter, logger: logger}
}

// Routes returns the request multiplexer wrapped in request logging.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", h.HandleGenerate)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	return logRequests(mux, h.logger)
}

type generateRequest struct {
	JobURL string `json:"job_url"`
}

type failureResponse struct {
	Stage model.Stage `json:"stage,omitempty"`
	Error string      `json:"error"`
}

// HandleGenerate runs the pipeline for the submitted job_url and answers with
// the email body as plain text, or a JSON failure naming the stage.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	jobURL, err := readJobURL(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, failureResponse{Error: err.Error()})
		return
	}
	if jobURL == "" {
		writeJSON(w, http.StatusBadRequest, failureResponse{Error: "missing job_url"})
		return
	}

	res := h.gen.Run(r.Context(), jobURL)
	if res.State != pipeline.StateDone || res.Draft == nil {
		status, msg := describeFailure(res)
		h.logger.Warn("generate failed", "url", jobURL, "class", res.Class(), "error", res.Err)
		var stage model.Stage
		if res.Err != nil {
			stage = res.Err.Stage
		}
		writeJSON(w, status, failureResponse{Stage: stage, Error: msg})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res.Draft.Body)
}

// HandleHealth reports liveness and the size of the portfolio collection.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := h.counter.Count(r.Context())
	if err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "portfolio store unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"portfolio_entries": n,
	})
}

// readJobURL accepts job_url from a JSON body or from form/query values.
func readJobURL(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return "", errors.New("invalid JSON body")
		}
		return strings.TrimSpace(req.JobURL), nil
	}
	return strings.TrimSpace(r.FormValue("job_url")), nil
}

// describeFailure maps a failed run to an HTTP status and a message that
// names the stage without exposing internal error text.
func describeFailure(res pipeline.Result) (int, string) {
	switch res.Class() {
	case pipeline.ClassConfiguration:
		return http.StatusInternalServerError, "configuration: the language model is not configured or unreachable"
	case pipeline.ClassScrape:
		return http.StatusBadGateway, "scrape: could not fetch the job page"
	case pipeline.ClassModel:
		if res.Err.Stage == model.StageCompose {
			return http.StatusBadGateway, "compose: the language model could not write the email"
		}
		return http.StatusBadGateway, "extract: the language model could not read the job posting"
	case pipeline.ClassStore:
		return http.StatusServiceUnavailable, "match: the portfolio store is unavailable"
	default:
		return http.StatusInternalServerError, "generation failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
