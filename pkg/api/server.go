package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sanjib-agent/cricketml/pkg/config"
	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/pipeline"
	"github.com/sanjib-agent/cricketml/pkg/registry"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// Retrainer runs a training pass over the given targets. The pipeline
// service satisfies this.
type Retrainer interface {
	Run(ctx context.Context, targetNames []string) (*pipeline.RunSummary, error)
}

// Server serves predictions over HTTP.
type Server struct {
	cfg              *config.Config
	catalog          *Catalog
	artifactRegistry *registry.Registry
	retrainer        Retrainer
	mux              *http.ServeMux
	cron             *cron.Cron
}

// NewServer creates the prediction server around a loaded catalog. The
// registry and retrainer are optional: without a registry best-model
// resolution falls back to roster order on reload, and without a
// retrainer scheduled retraining is disabled.
func NewServer(cfg *config.Config, catalog *Catalog, artifactRegistry *registry.Registry, retrainer Retrainer) *Server {
	s := &Server{
		cfg:              cfg,
		catalog:          catalog,
		artifactRegistry: artifactRegistry,
		retrainer:        retrainer,
		mux:              http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/predict/", s.handlePredict)
	s.mux.HandleFunc("/predict_batch", s.handlePredictBatch)
	s.mux.HandleFunc("/model_info", s.handleModelInfo)
	s.mux.HandleFunc("/feature_importance/", s.handleFeatureImportance)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server and, when configured, the retraining
// schedule. It blocks until the server exits.
func (s *Server) Start() error {
	if err := s.startRetrainSchedule(); err != nil {
		return err
	}
	addr := ":" + s.cfg.Port
	log.Printf("Prediction server listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// Stop stops the retraining schedule if one is running.
func (s *Server) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Server) startRetrainSchedule() error {
	if s.cfg.RetrainSchedule == "" {
		return nil
	}
	if s.retrainer == nil {
		return fmt.Errorf("RETRAIN_SCHEDULE is set but no retrainer is configured")
	}
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.RetrainSchedule, s.retrain); err != nil {
		return fmt.Errorf("invalid RETRAIN_SCHEDULE %q: %w", s.cfg.RetrainSchedule, err)
	}
	s.cron.Start()
	log.Printf("Scheduled retraining with schedule %q", s.cfg.RetrainSchedule)
	return nil
}

// retrain runs a full training pass and swaps in the freshly written
// models. A failed run leaves the current catalog serving.
func (s *Server) retrain() {
	log.Printf("Scheduled retraining starting")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	if _, err := s.retrainer.Run(ctx, nil); err != nil {
		log.Printf("Scheduled retraining failed: %v", err)
		return
	}
	next, err := LoadCatalog(s.cfg, s.artifactRegistry)
	if err != nil {
		log.Printf("Failed to reload models after retraining: %v", err)
		return
	}
	s.catalog.Swap(next)
	log.Printf("Scheduled retraining finished, models reloaded")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"targets": s.catalog.Targets(),
	})
}

// handlePredict handles POST /predict/{target}
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	target := strings.TrimPrefix(r.URL.Path, "/predict/")
	if target == "" || strings.Contains(target, "/") {
		http.Error(w, "Invalid target", http.StatusBadRequest)
		return
	}

	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	prediction, family, err := s.catalog.Predict(target, req.ModelType, req.Features)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.PredictResponse{
		Target:     target,
		ModelType:  family,
		Prediction: prediction,
		Timestamp:  time.Now().UTC(),
	})
}

// handlePredictBatch handles POST /predict_batch
func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.PredictBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets = s.catalog.Targets()
	}

	resp := models.PredictBatchResponse{
		Predictions: make(map[string]models.BatchPrediction, len(targets)),
		Timestamp:   time.Now().UTC(),
	}
	for _, target := range targets {
		prediction, family, err := s.catalog.Predict(target, req.ModelTypes[target], req.Features)
		if err != nil {
			resp.Predictions[target] = models.BatchPrediction{Error: err.Error()}
			continue
		}
		resp.Predictions[target] = models.BatchPrediction{
			ModelType:  family,
			Prediction: prediction,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleModelInfo handles GET /model_info
func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.catalog.Info())
}

// handleFeatureImportance handles GET /feature_importance/{target}
func (s *Server) handleFeatureImportance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	target := strings.TrimPrefix(r.URL.Path, "/feature_importance/")
	if target == "" || strings.Contains(target, "/") {
		http.Error(w, "Invalid target", http.StatusBadRequest)
		return
	}

	weights, family, err := s.catalog.FeatureImportance(target, r.URL.Query().Get("model_type"))
	if err != nil {
		s.writePredictionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"target":             target,
		"model_type":         family,
		"feature_importance": weights,
	})
}

func (s *Server) writePredictionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schema.ErrNoModel), errors.Is(err, schema.ErrUnknownTarget):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidFeatures):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
