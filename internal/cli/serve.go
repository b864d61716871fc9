package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/claimadjudicate/internal/extract"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/llm"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/pipeline"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"github.com/ppiankov/claimadjudicate/internal/web"
	"github.com/ppiankov/claimadjudicate/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the claim review UI and API",
	Long: `Start the HTTP server with the guided review UI and the JSON API.

Example:
  claimadjudicate serve
  claimadjudicate serve --addr :9090
  CLAIMADJ_PROCESSING_STAGE_DURATION=200ms claimadjudicate serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}
	summarizer, err := buildSummarizer(cfg)
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.Session.TTL, cfg.Session.CleanupInterval, logger)
	defer store.Close()

	srv, err := web.NewServer(web.Deps{
		Config:     cfg,
		Store:      store,
		Pipeline:   pipeline.New(source, pipeline.OptionsFromConfig(cfg.Processing)),
		Intake:     intake.New(cfg.Server.MaxUploadBytes),
		Summarizer: summarizer,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("llm", summarizer.ProviderName()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildSource returns the configured dataset, or the built-in one
func buildSource(cfg *model.Config) (extract.Source, error) {
	if cfg.Processing.SampleFile != "" {
		return extract.LoadSampleFile(cfg.Processing.SampleFile)
	}
	return extract.NewSampleSource()
}

// buildSummarizer returns the narrative note generator; it is disabled
// unless llm.provider is set
func buildSummarizer(cfg *model.Config) (*llm.Summarizer, error) {
	s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	// one call per second per provider
	return s.WithLimiter(worker.NewLimiter(1, 1)), nil
}
