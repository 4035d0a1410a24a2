package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/weaver/internal/infrastructure/sse"
	"github.com/felixgeelhaar/weaver/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/weaver/pkg/application"
	"github.com/felixgeelhaar/weaver/pkg/domain/remote"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run activity over HTTP",
	Long: `Serve run activity over HTTP.

Endpoints:
  GET  /runs/live   Server-Sent Events stream of run entries and progress
  GET  /runs/last   JSON record of the most recent run
  POST /runs        start a weave of the stored plan (add ?dry_run=1
                    to log events without calling the GitHub API)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}

		stream := sse.NewStreamHandler()
		var mu sync.Mutex
		running := false

		mux := http.NewServeMux()
		mux.Handle("GET /runs/live", stream)

		mux.HandleFunc("GET /runs/last", func(w http.ResponseWriter, r *http.Request) {
			outcome, err := services.Store.LoadOutcome()
			if err != nil {
				http.Error(w, "no run record", http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(outcome)
		})

		mux.HandleFunc("POST /runs", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			if running {
				mu.Unlock()
				http.Error(w, "a run is already in progress", http.StatusConflict)
				return
			}
			running = true
			mu.Unlock()

			cfg, cfgErr := services.Store.LoadConfig()
			plan, planErr := services.Store.LoadPlan()
			if cfgErr != nil || planErr != nil {
				mu.Lock()
				running = false
				mu.Unlock()
				http.Error(w, "workspace has no config or plan", http.StatusPreconditionFailed)
				return
			}

			weaver := services.Weaver
			if r.URL.Query().Get("dry_run") != "" {
				weaver = application.NewWeaverService(&remote.DryRun{})
				weaver.AddObserver(stream)
			} else {
				cfg.Token = wiring.GitHubToken()
				if cfg.Token == "" {
					mu.Lock()
					running = false
					mu.Unlock()
					http.Error(w, "no access token configured", http.StatusPreconditionFailed)
					return
				}
			}

			go func() {
				defer func() {
					mu.Lock()
					running = false
					mu.Unlock()
				}()
				outcome, _ := weaver.Weave(cmd.Context(), plan, cfg)
				if outcome != nil {
					_ = services.Store.SaveOutcome(outcome)
				}
			}()

			w.WriteHeader(http.StatusAccepted)
			_, _ = fmt.Fprintln(w, "run started")
		})

		// Live connections stay open indefinitely, so no write timeout.
		server := &http.Server{
			Addr:        serveAddr,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
		}
		services.Weaver.AddObserver(stream)

		fmt.Printf("Serving run activity on %s\n", serveAddr)
		return server.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7878", "listen address")
	RootCmd.AddCommand(serveCmd)
}
