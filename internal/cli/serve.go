package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quiz-calibration/internal/app"
	"quiz-calibration/internal/config"
	"quiz-calibration/internal/infra/memory"
	rediscache "quiz-calibration/internal/infra/redis"
	transport "quiz-calibration/internal/transport/http"
)

// NewServeCmd builds the subcommand that serves the analysis over HTTP for
// rendering collaborators.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis report as a JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath, *port)
		},
	}
}

func runServe(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	source, redisClient, cleanup, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	service, err := app.NewAnalysisService(source, analysisParams(cfg))
	if err != nil {
		return err
	}

	// Input is a static batch, so load and assemble once at startup.
	dataset, err := service.Snapshot(ctx)
	if err != nil {
		return err
	}
	report := service.Assemble(dataset)
	log.Printf("dataset loaded: %d respondents, %d warnings",
		len(report.Respondents), len(report.Warnings))

	reportTTL := config.TTLDuration(cfg.Report.TTL, 10*time.Minute)
	var provider app.ReportProvider
	if redisClient != nil {
		provider = rediscache.NewReportCache(redisClient, dataset, reportTTL)
	} else {
		provider = memory.NewReportCache(dataset, reportTTL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewReportHandler(report, provider).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting calibration report server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
