package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"uv-mask-maker/internal/config"
	"uv-mask-maker/internal/crypto"
	"uv-mask-maker/internal/logger"
	"uv-mask-maker/internal/server"
	"uv-mask-maker/internal/session"
)

func main() {
	configFile := flag.String("config", "", "Path to config file (YAML or JSON)")
	listen := flag.String("listen", "", "Listen address (default: 127.0.0.1:8750)")
	size := flag.Int("size", 0, "Default texture size")
	margin := flag.Int("margin", -1, "Default pixel margin")
	format := flag.String("format", "", "Default image format: png or webp")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "Rotating log file path")
	leaKey := flag.String("lea-key", "", "Hex LEA-256 key for encrypted BMD files")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Resolve(config.Flags{
		Size:     *size,
		Margin:   *margin,
		Format:   *format,
		Listen:   *listen,
		LogLevel: *logLevel,
		LogFile:  *logFile,
		LEAKey:   *leaKey,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.BMD.LEAKey != "" {
		if err := crypto.SetLEAKeyHex(cfg.BMD.LEAKey); err != nil {
			logger.Error("invalid LEA key", zap.Error(err))
			os.Exit(1)
		}
	}

	settings, err := session.SettingsFromConfig(cfg)
	if err != nil {
		logger.Error("invalid settings", zap.Error(err))
		os.Exit(1)
	}

	srv := server.New(server.Options{
		Settings:     settings,
		Format:       cfg.Output.Format,
		MaxSessions:  cfg.Server.MaxSessions,
		MaxBodyBytes: int64(cfg.Server.MaxBodyMB) << 20,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Listen),
			zap.Int("max_sessions", cfg.Server.MaxSessions))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
