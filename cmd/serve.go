package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for abstraction runs and artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/runs/{patientID}", func(w http.ResponseWriter, req *http.Request) {
			patientID := chi.URLParam(req, "patientID")
			if patientID == "" {
				http.Error(w, `{"error":"patient ID is required"}`, http.StatusBadRequest)
				return
			}

			// Run abstraction asynchronously
			go func() {
				result, err := env.Pipeline.RunPatient(ctx, patientID)
				if err != nil {
					zap.L().Error("abstraction run failed",
						zap.String("patient_id", patientID),
						zap.Error(err),
					)
					return
				}
				zap.L().Info("abstraction run complete",
					zap.String("patient_id", patientID),
					zap.Int("resolved", result.Resolved),
					zap.Int("exhausted", result.Exhausted),
				)
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status":  "accepted",
				"patient": patientID,
			})
		})

		r.Get("/artifacts/{patientID}", func(w http.ResponseWriter, req *http.Request) {
			patientID := chi.URLParam(req, "patientID")
			path := filepath.Join(cfg.Output.Dir, filepath.Base(patientID)+".json")
			data, err := os.ReadFile(path)
			if err != nil {
				http.Error(w, `{"error":"artifact not found"}`, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go shutdownWhenDone(ctx, srv, 10*time.Second)

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// shutdownWhenDone drains the server once ctx is cancelled. The drain
// runs on a fresh context because ctx itself is already cancelled by the
// time Shutdown is called.
func shutdownWhenDone(ctx context.Context, srv *http.Server, timeout time.Duration) {
	<-ctx.Done()
	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("server shutdown", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
