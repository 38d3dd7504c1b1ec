package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/app"
	"github.com/gatehouse-io/gatehouse/internal/app/maintenance"
	"github.com/gatehouse-io/gatehouse/internal/database"
	"github.com/gatehouse-io/gatehouse/internal/permissions"
	"github.com/gatehouse-io/gatehouse/internal/services"
	"github.com/gatehouse-io/gatehouse/pkg/logger"
)

const metricsShutdownTimeout = 5 * time.Second

// runtimeStack bundles the long-lived services of the security store.
type runtimeStack struct {
	DB              *gorm.DB
	Permissions     *services.PermissionService
	Roles           *services.RoleService
	Users           *services.UserService
	Groups          *services.GroupService
	Registrations   *services.RegistrationService
	Checker         *permissions.Checker
	Cleaner         *maintenance.Cleaner
	metricsListener *http.Server
}

// bootstrapRuntime initialises the database, synchronises declared permissions,
// and wires the service layer plus background maintenance.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := permissions.Sync(ctx, stack.DB); err != nil {
		return nil, fmt.Errorf("sync permission registry: %w", err)
	}

	if stack.Permissions, err = services.NewPermissionService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise permission service: %w", err)
	}
	if stack.Roles, err = services.NewRoleService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise role service: %w", err)
	}
	if stack.Users, err = services.NewUserService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}
	if stack.Groups, err = services.NewGroupService(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise group service: %w", err)
	}
	if stack.Registrations, err = services.NewRegistrationService(stack.DB, uuid.NewString); err != nil {
		return nil, fmt.Errorf("initialise registration service: %w", err)
	}
	if stack.Checker, err = permissions.NewChecker(stack.DB); err != nil {
		return nil, fmt.Errorf("initialise permission checker: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.Registrations,
			maintenance.WithRegistrationTTL(cfg.Maintenance.RegistrationTTL),
			maintenance.WithRegistrationSchedule(cfg.Maintenance.RegistrationSchedule),
		)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	if cfg.Monitoring.Prometheus.Enabled {
		stack.metricsListener = startMetricsListener(cfg.Monitoring.Prometheus, log)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.metricsListener != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, metricsShutdownTimeout)
		if err := s.metricsListener.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics listener shutdown", zap.Error(err))
		}
		cancel()
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func startMetricsListener(cfg app.PrometheusConfig, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux.Handle(endpoint, promhttp.Handler())

	server := &http.Server{Addr: cfg.Address, Handler: mux}
	go func() {
		log.Info("metrics listening", zap.String("addr", server.Addr), zap.String("endpoint", endpoint))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return server
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:   strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:     strings.TrimSpace(cfg.Database.Path),
		DSN:      strings.TrimSpace(cfg.Database.DSN),
		Host:     strings.TrimSpace(cfg.Database.Host),
		Port:     cfg.Database.Port,
		User:     strings.TrimSpace(cfg.Database.Username),
		Password: strings.TrimSpace(cfg.Database.Password),
		Name:     strings.TrimSpace(cfg.Database.Name),
		Options:  cfg.Database.Options,
	}

	switch dbCfg.Driver {
	case "":
		dbCfg.Driver = "sqlite"
	case "postgresql":
		dbCfg.Driver = "postgres"
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
