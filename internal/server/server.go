// Package server exposes the analyzer over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/xaenox/return-analyzer/internal/analyzer"
	"github.com/xaenox/return-analyzer/internal/catalog"
	"github.com/xaenox/return-analyzer/internal/models"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type analyzeReq struct {
	Text    string `json:"text"`
	Product *int   `json:"product,omitempty"`
}

type analyzeResp struct {
	ID            string                    `json:"id"`
	Product       *models.Product           `json:"product,omitempty"`
	Normalized    string                    `json:"normalized"`
	Label         string                    `json:"label"`
	Confidence    float64                   `json:"confidence"`
	Probabilities []models.LabelProbability `json:"probabilities"`
	Resolution    models.Resolution         `json:"resolution"`
	Review        *models.Review            `json:"review,omitempty"`
}

type Server struct {
	service *analyzer.Service
	logger  *zap.Logger
	mux     *http.ServeMux
}

func New(service *analyzer.Service, logger *zap.Logger) *Server {
	s := &Server{service: service, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.HandleFunc("/products", s.handleProducts)
	// POST /analyze  { "text": "...", "product": 0 }
	s.mux.HandleFunc("/analyze", s.handleAnalyze)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.service.Products())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req analyzeReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	a, err := s.service.Analyze(r.Context(), analyzer.Request{ProductIndex: req.Product, Reason: req.Text})
	switch {
	case errors.Is(err, analyzer.ErrEmptyReason):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"warning": "Please enter a return reason"})
		return
	case errors.Is(err, catalog.ErrUnknownProduct):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.logger.Error("Analysis failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
		return
	}

	writeJSON(w, http.StatusOK, analyzeResp{
		ID:            a.ID,
		Product:       a.Product,
		Normalized:    a.Normalized,
		Label:         a.Prediction.Label,
		Confidence:    a.Prediction.Confidence(),
		Probabilities: a.Prediction.Probabilities,
		Resolution:    a.Resolution,
		Review:        a.Review,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
