package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/sitefinder/internal/pipeline"
	"github.com/sells-group/sitefinder/internal/quota"
	"github.com/sells-group/sitefinder/internal/search"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve single-company resolution over HTTP",
	Long: `Runs an HTTP server with two endpoints: POST /api/resolve resolves one
company (searching through the configured chain, or ranking candidate
URLs supplied in the request), and GET /healthz reports the circuit
state of each backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		backends, err := chainBackends("")
		if err != nil {
			return err
		}
		env, err := initSearchEnv(ctx, backends, cfg.Browser.Headless)
		if err != nil {
			return err
		}
		defer env.Close()

		matcher, rules := newMatcher()
		resolver := pipeline.NewResolver(env.Chain, matcher, rules, cfg.Search.MaxResults)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(resolver, env.Chain, env.Usage),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutCtx)
		}()

		zap.L().Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.Strings("backends", backends),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		zap.L().Info("server stopped")
		return nil
	},
}

// resolveRequest is the POST /api/resolve payload. URLs, when present,
// skip the search and rank the supplied candidates instead.
type resolveRequest struct {
	Company string   `json:"company"`
	URLs    []string `json:"urls,omitempty"`
}

func newRouter(resolver *pipeline.Resolver, chain *search.Chain, usage *quota.Tracker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		backends := map[string]string{}
		if chain != nil {
			for name, state := range chain.BreakerStates() {
				backends[name] = state.String()
			}
		}
		body := map[string]any{
			"status":   "ok",
			"backends": backends,
		}
		if usage != nil {
			body["queries"] = usage.Counts()
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Post("/api/resolve", func(w http.ResponseWriter, req *http.Request) {
		var in resolveRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if in.Company == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company is required"})
			return
		}

		if len(in.URLs) > 0 {
			writeJSON(w, http.StatusOK, resolver.MatchURLs(in.Company, in.URLs))
			return
		}

		res, err := resolver.ResolveOne(req.Context(), in.Company)
		if err != nil {
			zap.L().Error("resolve request failed",
				zap.String("company", in.Company), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "search failed"})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
