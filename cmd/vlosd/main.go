package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"vlos-insights-go/internal/candidates"
	"vlos-insights-go/internal/config"
	"vlos-insights-go/internal/graph"
	"vlos-insights-go/internal/logger"
	"vlos-insights-go/internal/pipeline"
	"vlos-insights-go/internal/report"
	"vlos-insights-go/internal/verslag"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "vlos-insights-go").Info("starting service")

	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	conn, err := graph.Connect(ctx)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to neo4j")
	}
	defer conn.Close(context.Background())

	pipe := pipeline.New(cfg, candidates.NewNeo4jProvider(conn, cfg))
	writer := graph.NewWriter(conn)
	fetcher := verslag.NewFetcher()
	reportDir := os.Getenv("REPORT_DIR")

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	// process endpoint: POST raw verslag XML, or pass ?verslag_id= to fetch
	// it from the open data API
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "process")
		reqLog.Info("process request received")

		var content []byte
		var err error
		if verslagID := r.URL.Query().Get("verslag_id"); verslagID != "" {
			reqLog = reqLog.WithField("verslag_id", verslagID)
			content, err = fetcher.Fetch(r.Context(), verslagID)
			if err != nil {
				reqLog.WithField("error", err.Error()).Warn("verslag fetch failed")
				http.Error(w, fmt.Sprintf("fetch verslag: %v", err), http.StatusBadGateway)
				return
			}
		} else {
			if r.Method != http.MethodPost {
				http.Error(w, "POST verslag XML or pass verslag_id", http.StatusBadRequest)
				return
			}
			content, err = io.ReadAll(r.Body)
			if err != nil || len(content) == 0 {
				reqLog.Warn("empty request body")
				http.Error(w, "empty request body", http.StatusBadRequest)
				return
			}
		}

		start := time.Now()
		result := pipe.Process(r.Context(), content)
		duration := time.Since(start)
		reqLog.WithField("duration_ms", duration.Milliseconds()).WithField("success", result.Success).Info("pipeline finished")

		if result.Success && r.URL.Query().Get("persist") != "false" {
			if err := writer.PersistResult(r.Context(), result); err != nil {
				reqLog.WithField("error", err.Error()).Warn("graph persistence failed")
				result.Warnings = append(result.Warnings, fmt.Sprintf("graph persistence failed: %v", err))
			}
		}
		if result.Success && reportDir != "" {
			path := filepath.Join(reportDir, result.RunID+".xlsx")
			if err := report.Save(result, path); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("report export failed: %v", err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !result.Success {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			reqLog.WithField("error", err.Error()).Error("failed to write response")
		}
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
