package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ascentvc/diligence-cli/internal/extract"
	"github.com/ascentvc/diligence-cli/internal/ingest"
	"github.com/ascentvc/diligence-cli/internal/model"
	"github.com/ascentvc/diligence-cli/internal/warehouse"
)

const (
	analyzeTimeout  = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
	maxUploadBytes  = 64 << 20
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// apiServer holds the handlers' dependencies. The warehouse may be nil
// when persistence is not configured; endpoints that need it say so.
type apiServer struct {
	pipeline *ingest.Pipeline
	wh       warehouse.Warehouse
	pre      *extract.Preprocessor
	chain    *extract.Chain
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, err := initPipeline(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	api := &apiServer{
		pipeline: env.Pipeline,
		wh:       env.Warehouse,
		pre:      env.Pre,
		chain:    env.Chain,
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("cmd: api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zap.L().Info("cmd: shutting down api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/extract", s.handleExtract)
		r.Get("/companies/{name}/analyses/latest", s.handleLatestAnalysis)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Info("cmd: http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("cmd: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.wh != nil {
		if err := s.wh.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":    "degraded",
				"warehouse": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze queues a company analysis and returns immediately. The
// result lands in the warehouse and deal tracker; poll the latest
// analysis endpoint for it.
func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var company model.Company
	if err := json.NewDecoder(r.Body).Decode(&company); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if company.Name == "" {
		writeError(w, http.StatusBadRequest, "company name is required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		if _, err := s.pipeline.AnalyzeCompany(ctx, company); err != nil {
			zap.L().Error("cmd: queued analysis failed",
				zap.String("company", company.Name),
				zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  string(model.RunStatusQueued),
		"company": company.Name,
	})
}

// handleExtract runs the extraction chain on an uploaded deck and
// returns the result synchronously.
func (s *apiServer) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with a deck file")
		return
	}
	file, header, err := r.FormFile("deck")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing deck file")
		return
	}
	defer file.Close()

	tmpDir, err := os.MkdirTemp("", "deck-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "staging upload failed")
		return
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "staging upload failed")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "staging upload failed")
		return
	}
	dst.Close()

	doc, err := s.pre.Prepare(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	defer s.pre.Cleanup(doc)

	res, err := s.chain.Run(r.Context(), doc)
	if err != nil {
		var failed *extract.AllFailedError
		if errors.As(err, &failed) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       "extraction failed on every strategy",
				"attempts":    failed.Attempts,
				"suggestions": failed.Suggestions,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleLatestAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.wh == nil {
		writeError(w, http.StatusServiceUnavailable, "no warehouse configured")
		return
	}
	name := chi.URLParam(r, "name")
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = string(warehouse.KindBenchmark)
	}

	companyID, err := s.wh.CompanyID(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rec, err := s.wh.LatestAnalysis(r.Context(), companyID, warehouse.Kind(kind))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no stored %s analysis for %q", kind, name))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
