package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pulmoscan/pulmoscan/internal/config"
	"github.com/pulmoscan/pulmoscan/internal/domain/dashboard"
	"github.com/pulmoscan/pulmoscan/internal/domain/identity"
	"github.com/pulmoscan/pulmoscan/internal/domain/inventory"
	"github.com/pulmoscan/pulmoscan/internal/domain/medicine"
	"github.com/pulmoscan/pulmoscan/internal/domain/scanreport"
	"github.com/pulmoscan/pulmoscan/internal/platform/auth"
	"github.com/pulmoscan/pulmoscan/internal/platform/blobstore"
	"github.com/pulmoscan/pulmoscan/internal/platform/classifier"
	"github.com/pulmoscan/pulmoscan/internal/platform/db"
	"github.com/pulmoscan/pulmoscan/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulmoscan-server",
		Short: "Pharmacy and chest X-ray analysis API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedUsersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Provision the default accounts, repairing role and staff flag on re-run",
		RunE: func(cmd *cobra.Command, args []string) error {
			fallbackPassword, _ := cmd.Flags().GetString("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			svc := identity.NewService(identity.NewRepoPG(pool), logger)

			// Each account reads SEED_<NAME>_USERNAME / _EMAIL / _PASSWORD
			// from the environment; --password backstops a missing password.
			v := viper.New()
			v.AutomaticEnv()

			seeds := []struct {
				key, role string
				isStaff   bool
			}{
				{"ADMIN", auth.RoleAdmin, true},
				{"DOCTOR", auth.RoleDoctor, false},
				{"PHARMACIST", auth.RolePharmacist, false},
			}
			for _, s := range seeds {
				name := strings.ToLower(s.key)
				v.SetDefault("SEED_"+s.key+"_USERNAME", name)
				v.SetDefault("SEED_"+s.key+"_EMAIL", name+"@pulmoscan.local")

				username := v.GetString("SEED_" + s.key + "_USERNAME")
				email := v.GetString("SEED_" + s.key + "_EMAIL")
				password := v.GetString("SEED_" + s.key + "_PASSWORD")
				if password == "" {
					password = fallbackPassword
				}
				if password == "" {
					return fmt.Errorf("no password for %q: set SEED_%s_PASSWORD or --password", username, s.key)
				}

				if err := svc.EnsureSeedUser(ctx, username, email, password, s.role, s.isStaff); err != nil {
					return fmt.Errorf("seeding %s: %w", username, err)
				}
				fmt.Printf("ensured user %q with role %s\n", username, s.role)
			}
			return nil
		},
	}
	cmd.Flags().String("password", "", "Fallback password for seed accounts without SEED_<NAME>_PASSWORD set")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Blob storage for scan images
	blobs, err := blobstore.NewFilesystemStore(cfg.MediaDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize media storage")
	}

	// Classifier client, created lazily on first use so the server can
	// start while the inference service is still coming up.
	clf := classifier.NewHandle(func() (classifier.Classifier, error) {
		return classifier.NewHTTPClassifier(cfg.InferenceURL, cfg.InferenceTimeout), nil
	})

	// Token issuing and revocation
	revocations := auth.NewTokenRevocationStore()
	defer revocations.Close()
	issuer := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL, revocations)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// -- Services --

	identitySvc := identity.NewService(identity.NewRepoPG(pool), logger)
	medicineRepo := medicine.NewRepoPG(pool)
	medicineSvc := medicine.NewService(medicineRepo, logger)
	inventorySvc := inventory.NewService(inventory.NewRepoPG(pool), logger)
	scanRepo := scanreport.NewRepoPG(pool)
	scanSvc := scanreport.NewService(scanRepo, blobs, clf, cfg.PneumoniaThreshold, cfg.InferenceTimeout, logger)
	dashboardSvc := dashboard.NewService(medicineRepo, scanRepo, logger)

	// Token endpoints live outside the JWT middleware.
	authHandler := auth.NewHandler(identitySvc, issuer)
	authHandler.RegisterRoutes(e.Group("/api/auth"))

	// Everything under /api/v1 requires a valid access token.
	apiV1 := e.Group("/api/v1", auth.JWTMiddleware([]byte(cfg.JWTSecret)))

	medicine.NewHandler(medicineSvc).RegisterRoutes(apiV1)
	inventory.NewHandler(inventorySvc).RegisterRoutes(apiV1)
	scanreport.NewHandler(scanSvc).RegisterRoutes(apiV1)
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
