package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventease-dev/eventease/db"
	"github.com/eventease-dev/eventease/internal/access"
	"github.com/eventease-dev/eventease/internal/ai"
	"github.com/eventease-dev/eventease/internal/assistant"
	"github.com/eventease-dev/eventease/internal/auth"
	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/handlers"
	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/mail"
	"github.com/eventease-dev/eventease/internal/monitors"
	"github.com/eventease-dev/eventease/internal/router"
	"github.com/eventease-dev/eventease/internal/scheduler"
	"github.com/eventease-dev/eventease/internal/services"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run AutoMigrate on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if !skipMigrate {
		if err := db.MigrateDatabase(database); err != nil {
			logger.Error("Migration failed", zap.Error(err))
			return err
		}
	}

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := buildHandler(ctx, cfg, logger, database)
	if err != nil {
		return err
	}

	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.NewScheduler(database, h.Mailer, cfg.Scheduler, logger)
		if err := jobs.Start(); err != nil {
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	if jobs != nil {
		jobs.Stop()
	}

	h.Mailer.Wait()
	h.Notifier.Wait()

	return nil
}

func buildHandler(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, database *gorm.DB) (*handlers.Handler, error) {
	enforcer, err := access.NewEnforcer()
	if err != nil {
		return nil, err
	}

	mailer, err := mail.New(cfg.Mail, cfg.PublicURL, logger)
	if err != nil {
		return nil, err
	}

	aiServices := buildAIServices(ctx, cfg, logger)

	h := &handlers.Handler{
		DB:       database,
		Config:   cfg,
		Logger:   logger,
		Access:   enforcer,
		Mailer:   mailer,
		AI:       aiServices,
		Images:   imaging.NewStore(cfg.StaticDir),
		Notifier: services.NewNotifier(nil, logger),
		Hub:      handlers.NewHub(logger, types.AllowedOrigins(cfg.PublicURL, cfg.AllowedOrigins)),
		Probes:   buildProbes(cfg, database),
	}

	if aiServices.Generator != nil {
		h.Assistant = assistant.New(aiServices.Generator)
	}

	return h, nil
}

// buildAIServices leaves a service nil when it is not configured; the routes
// that need it answer 503.
func buildAIServices(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) ai.Services {
	var out ai.Services
	timeout := cfg.AITimeout()

	warn := func(service string, err error) {
		logger.Warn("AI service disabled", zap.String("service", service), zap.Error(err))
	}

	if gen, err := ai.NewGenerator(ctx, cfg.AI); err != nil {
		warn("generate", err)
	} else {
		out.Generator = gen
	}

	if captioner, err := ai.NewCaptioner(cfg.AI.CaptionURL, cfg.AI.CaptionToken, timeout, nil); err != nil {
		warn("caption", err)
	} else {
		out.Captioner = captioner
	}

	if translator, err := ai.NewTranslator(cfg.AI.TranslateURL, cfg.AI.GoogleAPIKey, timeout, nil); err != nil {
		warn("translate", err)
	} else {
		out.Translator = translator
	}

	if speaker, err := ai.NewSpeaker(ctx, cfg.AI.SpeechURL, cfg.AI.GoogleAPIKey, timeout); err != nil {
		warn("speech", err)
	} else {
		out.Speaker = speaker
	}

	return out
}

func buildProbes(cfg *config.AppConfig, database *gorm.DB) []monitors.Probe {
	probes := []monitors.Probe{
		{
			Name:  "database",
			Check: func(ctx context.Context) error { return monitors.CheckDatabase(ctx, database) },
		},
	}

	if cfg.Mail.Username != "" && cfg.Mail.Server != "" {
		dnsConfig := &types.DNSConfig{Domain: mailHost(cfg.Mail.Server), RecordType: "A", Timeout: 5}
		probes = append(probes, monitors.Probe{
			Name:     "smtp_dns",
			Optional: true,
			Check:    func(ctx context.Context) error { return monitors.CheckDNS(ctx, dnsConfig) },
		})
	}

	endpoints := map[string]string{
		"caption":   cfg.AI.CaptionURL,
		"translate": cfg.AI.TranslateURL,
		"speech":    cfg.AI.SpeechURL,
	}
	for _, name := range []string{"caption", "translate", "speech"} {
		if endpoints[name] == "" {
			continue
		}
		httpConfig := &types.HttpConfig{Name: name, Method: http.MethodHead, URL: endpoints[name], Timeout: 5}
		probes = append(probes, monitors.Probe{
			Name:     name,
			Optional: true,
			Check:    func(ctx context.Context) error { return monitors.GetHTTP(ctx, httpConfig) },
		})
	}

	return probes
}

func mailHost(server string) string {
	if host, _, err := net.SplitHostPort(server); err == nil {
		return host
	}
	return server
}
