package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/wa-optimizer/internal/models"
	"github.com/AngelCh415/wa-optimizer/internal/optimize"
	"github.com/AngelCh415/wa-optimizer/internal/utils"
)

const maxBodyBytes = 1 << 20

// Optimizer is the pipeline behind POST /optimize.
type Optimizer interface {
	Run(ctx context.Context, req models.OptimizationRequest) (models.OptimizationResponse, error)
}

type Deps struct {
	Log         *slog.Logger
	Optimizer   Optimizer
	Metrics     *utils.Metrics
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

type errorBody struct {
	Detail string `json:"detail"`
}

func NewRouter(d Deps) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(d.Log))
	if d.Metrics != nil {
		mux.Use(d.Metrics.Instrument)
	}
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	if d.Gatherer != nil {
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.Post("/optimize", func(w http.ResponseWriter, r *http.Request) {
		var req models.OptimizationRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		resp, err := d.Optimizer.Run(r.Context(), req)
		if err != nil {
			if optimize.IsRejection(err) {
				writeError(w, http.StatusBadRequest, insufficient(err))
				return
			}
			d.Log.Error("optimize failed", slog.String("rid", utils.RID(r.Context())), slog.String("err", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	return mux
}

func insufficient(err error) string {
	reason := err.Error()
	if errors.Is(err, optimize.ErrInvalidRequest) {
		reason = strings.TrimPrefix(reason, optimize.ErrInvalidRequest.Error()+": ")
	}
	return "INSUFFICIENT_DATA: " + reason
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
