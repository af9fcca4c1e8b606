package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	acPostgres "github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol/postgres"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/events"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/i18n"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/notification"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/organization"
	organizationPostgres "github.com/Kauel-Chile/MERN-Boilerplate/internal/organization/postgres"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport/rest"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	userPostgres "github.com/Kauel-Chile/MERN-Boilerplate/internal/user/postgres"
	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

var specPath string

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Bootstrap the root identity and start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	SQL    *sqlx.DB
	DB     *gorm.DB
	Bus    *events.EventBus
	Access *accesscontrol.Service
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	// The super admin must exist before the first request is served.
	bootCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	root, err := deps.Access.Bootstrap(bootCtx)
	cancel()
	if err != nil {
		deps.Logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	deps.Logger.Info("root identity ready", "user_id", root.ID, "email", root.Email)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Bus.Drain(ctx); err != nil {
			deps.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		if err := deps.SQL.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	sqlDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	translator, err := i18n.New(config.App.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}
	base := transport.NewBaseHandler(lg, translator, config.App.Locale)

	bus := events.NewEventBus(lg)
	mailer, err := notification.NewMailer(config.Mail, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	notification.NewVerificationNotifier(mailer, translator, notification.VerificationConfig{
		VerifyURL:     verifyURL(config),
		PlatformName:  config.App.PlatformName,
		PlatformURL:   config.App.URL,
		DefaultLocale: config.App.Locale,
	}, lg).Register(bus)

	users := userPostgres.NewUserRepository(db)
	hasher := auth.NewBcryptHasher(config.Security.BCryptCost, config.Security.MaxConcurrentHashes, config.Security.HashTimeout)
	tokens := auth.NewJWTCodec(config.Security.JWTSecret)

	access := accesscontrol.NewService(acPostgres.NewRoleRepository(db), users, hasher, config.Bootstrap, lg)
	authService := auth.NewService(users, hasher, tokens, bus, auth.ServiceConfig{
		TokenTTL:      config.Security.AccessTokenTTL,
		DefaultLocale: config.App.Locale,
	}, lg)
	orgService := organization.NewService(organizationPostgres.NewOrganizationRepository(db), access, lg)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Dependencies{
		DB:                 sqlDB.DB,
		Base:               base,
		Locales:            translator,
		Auth:               auth.NewHandler(base, authService),
		Users:              user.NewHandler(base, user.NewService(users, lg)),
		Roles:              accesscontrol.NewHandler(base, access),
		Organizations:      organization.NewHandler(base, orgService),
		Authorization:      accesscontrol.NewRBACAuthorization(base, access),
		AllowedOrigins:     config.Server.Origins(),
		LoginRatePerMinute: config.Security.LoginRatePerMinute,
		TrustProxyHeaders:  config.Security.TrustProxyHeaders,
		Metrics:            config.Observability.Metrics,
		SpecPath:           specPath,
	})

	return &Dependencies{
		Config: config,
		SQL:    sqlDB,
		DB:     db,
		Bus:    bus,
		Access: access,
		Router: router,
		Logger: lg,
	}, nil
}

// verifyURL falls back to the API's own verification route when no front-end
// link is configured.
func verifyURL(cfg *internal.Config) string {
	if cfg.Mail.VerifyURL != "" {
		return cfg.Mail.VerifyURL
	}
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL + "/verify"
	}
	return fmt.Sprintf("http://localhost:%d/verify", cfg.Server.Port)
}

func init() {
	httpServerCmd.Flags().StringVar(&specPath, "openapi", "api/openapi.yml", "OpenAPI document served at /openapi.yml, empty to disable")
}
