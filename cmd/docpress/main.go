package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/yourorg/docpress/pkg/config"
	"github.com/yourorg/docpress/pkg/convert"
	"github.com/yourorg/docpress/pkg/document"
	"github.com/yourorg/docpress/pkg/history"
	"github.com/yourorg/docpress/pkg/httpservice"
	"github.com/yourorg/docpress/pkg/logging"
	"github.com/yourorg/docpress/pkg/store"
	"github.com/yourorg/docpress/pkg/utils"
	"github.com/yourorg/docpress/pkg/web"
)

// Build information (set by goreleaser)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type serveFlags struct {
	configFile string
	host       string
	port       int
	noBrowser  bool
}

func newRootCommand() *cobra.Command {
	var flags serveFlags

	rootCmd := &cobra.Command{
		Use:   "docpress",
		Short: "Convert Word, PowerPoint, text, and Markdown documents to PDF in your browser",
		Long: `Docpress starts a local web server with a browser UI for converting
documents to PDF. Uploads stay on this machine; converted files are
removed automatically a few minutes after conversion.

Word documents need LibreOffice on the PATH. Markdown rendering uses a
local Chromium, downloading one on first use if none is installed.`,
		Example: `  docpress
  docpress --port 9000 --no-browser
  docpress --config docpress.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.configFile, "config", "", "YAML or JSON config file (environment variables take precedence)")
	rootCmd.Flags().StringVar(&flags.host, "host", "", "interface to listen on (default 127.0.0.1)")
	rootCmd.Flags().IntVar(&flags.port, "port", 0, "port to listen on (default 8501)")
	rootCmd.Flags().BoolVar(&flags.noBrowser, "no-browser", false, "do not open a browser tab on startup")

	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docpress %s (commit: %s, built: %s, go: %s)\n",
				version, commit, date, runtime.Version())
		},
	}
}

func loadConfig(flags serveFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadConfigFromFile(flags.configFile)
	} else {
		cfg, err = config.LoadConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if flags.host != "" {
		cfg.HTTPHost = flags.host
	}
	if flags.port != 0 {
		cfg.HTTPPort = flags.port
	}
	if flags.noBrowser {
		cfg.OpenBrowser = false
	}
	return cfg, nil
}

func effectiveVersion(cfg *config.Config) string {
	if version != "dev" {
		return version
	}
	return cfg.AppVersion
}

// browserURL is what gets opened in the browser. A wildcard listen address
// is not routable, so the loopback address stands in for it.
func browserURL(cfg *config.Config) string {
	host := cfg.HTTPHost
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d/", host, cfg.HTTPPort)
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("Starting docpress",
		logging.NewField("version", effectiveVersion(cfg)),
		logging.NewField("max_upload_mb", cfg.MaxUploadMB))

	workspace, err := store.NewWorkspace(cfg.TempDir, cfg.OutputTTL(), cfg.SweepInterval(), logger)
	if err != nil {
		logger.Error("Failed to create workspace", logging.NewField("error", err))
		return err
	}
	defer func() {
		if err := workspace.Close(); err != nil {
			logger.Warn("Workspace cleanup failed", logging.NewField("error", err))
		}
	}()

	markdown := convert.NewMarkdownConverter(convert.MarkdownOptions{
		ChromePath: cfg.ChromePath,
		Timeout:    cfg.ConvertTimeout(),
		// Chromium refuses to sandbox as root, common in containers
		NoSandbox: os.Geteuid() == 0,
	})
	defer func() {
		if err := markdown.Close(); err != nil {
			logger.Warn("Markdown renderer shutdown failed", logging.NewField("error", err))
		}
	}()

	registry := convert.NewRegistry(
		convert.NewOfficeConverter(cfg.SofficePath, cfg.ConvertTimeout()),
		convert.NewSlidesConverter(),
		convert.NewTextConverter(),
		markdown,
	)
	for t, reason := range registry.Availability() {
		if reason != "" {
			logger.Warn("Conversion delegate not ready",
				logging.NewField("type", string(t)),
				logging.NewField("reason", reason))
		}
	}

	app := web.NewApp(web.Options{
		Logger:      logger,
		Validator:   document.NewValidator(cfg.MaxUploadBytes()),
		Registry:    registry,
		Workspace:   workspace,
		History:     history.NewLog(cfg.HistoryLimit),
		MaxUploadMB: cfg.MaxUploadMB,
		Version:     effectiveVersion(cfg),
	})

	server, err := httpservice.NewServer(httpservice.ServerConfig{
		Host:           cfg.HTTPHost,
		Port:           cfg.HTTPPort,
		ServiceName:    cfg.AppName,
		ReadTimeout:    time.Duration(cfg.HTTPReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.HTTPIdleTimeout) * time.Second,
		Logger:         logger,
		RateLimitRPS:   float64(cfg.RateLimitRPS),
		RateLimitBurst: cfg.RateLimitBurst,
		// multipart framing adds overhead on top of the document itself
		MaxBodySize:          cfg.MaxUploadBytes() + 2*1024*1024,
		SlowRequestThreshold: cfg.ConvertTimeout() / 2,
		DebugBodyLog:         strings.EqualFold(cfg.LogLevel, "debug"),
	}, app)
	if err != nil {
		logger.Error("Failed to create server", logging.NewField("error", err))
		return err
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	url := browserURL(cfg)
	if err := waitHealthy(cmd.Context(), cfg, server.Addr()); err != nil {
		select {
		case startErr := <-errCh:
			logger.Error("Server failed to start", logging.NewField("error", startErr))
			return startErr
		default:
		}
		logger.Warn("Server did not report healthy in time", logging.NewField("error", err))
	} else {
		logger.Info("Ready to convert documents", logging.NewField("url", url))
		if cfg.OpenBrowser {
			if err := browser.OpenURL(url); err != nil {
				logger.Warn("Could not open browser, open the URL manually",
					logging.NewField("url", url),
					logging.NewField("error", err))
			}
		}
	}

	// Wait for interrupt signal
	select {
	case sig := <-quit:
		logger.Info("Shutting down server", logging.NewField("signal", sig.String()))
	case err := <-errCh:
		logger.Error("Server error", logging.NewField("error", err))
		return err
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", logging.NewField("error", err))
	}
	return nil
}

// waitHealthy polls the health endpoint until the server answers.
func waitHealthy(ctx context.Context, cfg *config.Config, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	healthURL := fmt.Sprintf("http://%s/health", addr)
	client := &http.Client{Timeout: 2 * time.Second}

	return utils.Retry(ctx, utils.RetryConfig{
		MaxAttempts:  cfg.RetryMaxAttempts,
		InitialDelay: time.Duration(cfg.RetryInitialDelay) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.RetryMaxDelay) * time.Millisecond,
		Multiplier:   2.0,
	}, func() error {
		resp, err := client.Get(healthURL)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check returned %d", resp.StatusCode)
		}
		return nil
	})
}
