package di

import (
	"context"
	"time"

	"gorm.io/gorm"

	"faceauth/application/serviceimpl"
	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/infrastructure/faceapi"
	"faceauth/infrastructure/memory"
	"faceauth/infrastructure/postgres"
	"faceauth/infrastructure/redis"
	"faceauth/interfaces/api/handlers"
	"faceauth/pkg/config"
	"faceauth/pkg/logger"
	"faceauth/pkg/scheduler"
)

const (
	auditJobID          = "descriptor-audit"
	extractorRetryJobID = "extractor-init-retry"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	MemoryStore    *memory.Store
	RedisClient    *redis.RedisClient
	Extractor      *faceapi.Extractor
	EventScheduler scheduler.EventScheduler

	// Repositories
	IdentityRepository   repositories.IdentityRepository
	DescriptorRepository repositories.DescriptorRepository
	RevocationRepository repositories.RevocationRepository

	// Services
	FaceAuthService services.FaceAuthService
	SessionService  services.SessionService
	AuditService    services.AuditService
}

func NewContainer() *Container {
	return &Container{}
}

// Initialize wires everything the API server needs
func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initStore(); err != nil {
		return err
	}

	c.initRedis()
	c.initExtractor()

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

// InitializeStore wires config, the store and the services on top of it,
// without redis, the extractor or the scheduler. Used by faceadmin.
func (c *Container) InitializeStore() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initStore(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	return c.initServices()
}

func (c *Container) initConfig() error {
	if c.Config != nil {
		return nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", map[string]interface{}{
		"store":     cfg.Store.Driver,
		"threshold": cfg.Matching.Threshold,
		"dimension": cfg.Matching.Dimension,
	})
	return nil
}

func (c *Container) initStore() error {
	if c.Config.Store.Driver == config.StoreDriverMemory {
		c.MemoryStore = memory.NewStore()
		logger.StartupWarn("memory_store", "Using in-memory store, identities are lost on restart", nil)
		return nil
	}

	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
		Verbose:  c.Config.App.Env == "development",
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	return nil
}

func (c *Container) initRedis() {
	if !c.Config.Redis.Enabled {
		logger.Startup("redis_disabled", "Redis disabled, session revocations kept in memory", nil)
		return
	}

	redisConfig := redis.RedisConfig{
		Host:     c.Config.Redis.Host,
		Port:     c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	c.RedisClient = redis.NewRedisClient(redisConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.RedisClient.Ping(ctx); err != nil {
		logger.StartupWarn("redis_connection_failed", "Redis connection failed, session revocations kept in memory", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.Startup("redis_connected", "Redis connected", nil)
	c.RevocationRepository = redis.NewRevocationRepository(c.RedisClient)
}

func (c *Container) initExtractor() {
	if !c.Config.FaceAPI.Enabled {
		logger.Startup("face_api_disabled", "Face API is disabled, only client descriptors are accepted", nil)
		return
	}

	c.Extractor = faceapi.NewExtractor(c.Config.FaceAPI.BaseURL, c.Config.Matching.Dimension, c.Config.FaceAPI.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), c.Config.FaceAPI.Timeout)
	defer cancel()
	if err := c.Extractor.Init(ctx); err != nil {
		logger.StartupWarn("face_api_not_ready", "Face API not ready, image login disabled until it recovers", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.Startup("face_api_ready", "Face API ready", map[string]interface{}{"model": c.Extractor.Model()})
}

func (c *Container) initRepositories() error {
	if c.MemoryStore != nil {
		c.IdentityRepository = c.MemoryStore.Identities()
		c.DescriptorRepository = c.MemoryStore.Descriptors()
	} else {
		c.IdentityRepository = postgres.NewIdentityRepository(c.DB)
		c.DescriptorRepository = postgres.NewDescriptorRepository(c.DB)
	}

	if c.RevocationRepository == nil {
		c.RevocationRepository = memory.NewRevocations()
	}

	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	// Keep the interface nil when extraction is off
	var extractor services.Extractor
	if c.Extractor != nil {
		extractor = c.Extractor
	}

	c.FaceAuthService = serviceimpl.NewFaceAuthService(
		c.IdentityRepository,
		c.DescriptorRepository,
		extractor,
		serviceimpl.FaceAuthConfig{
			Threshold:          c.Config.Matching.Threshold,
			Dimension:          c.Config.Matching.Dimension,
			DefaultDisplayName: c.Config.Matching.DefaultDisplayName,
		},
	)
	c.SessionService = serviceimpl.NewSessionService(c.RevocationRepository, c.Config.JWT.Secret, c.Config.JWT.TTL)
	c.AuditService = serviceimpl.NewAuditService(c.IdentityRepository, c.DescriptorRepository, c.Config.Matching.Dimension)

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	if cronExpr := c.Config.Scheduler.AuditCron; cronExpr != "" {
		if err := scheduler.ValidateCronExpression(cronExpr); err != nil {
			return err
		}
		err := c.EventScheduler.AddJob(auditJobID, cronExpr, c.runAudit)
		if err != nil {
			logger.StartupWarn("audit_schedule_failed", "Failed to schedule descriptor audit", map[string]interface{}{"error": err.Error()})
		}
	}

	if c.Extractor != nil {
		if state, _ := c.Extractor.State(); state != faceapi.StateReady {
			err := c.EventScheduler.AddJob(extractorRetryJobID, "* * * * *", c.retryExtractor)
			if err != nil {
				logger.StartupWarn("extractor_retry_schedule_failed", "Failed to schedule extractor retry", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	c.EventScheduler.Start()
	logger.Startup("scheduler_started", "Event scheduler started", nil)
	return nil
}

func (c *Container) runAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := c.AuditService.AuditDescriptors(ctx); err != nil {
		logger.SchedulerError("audit_job_error", "Descriptor audit failed", err, nil)
	}
}

// retryExtractor re-runs Init until the face API comes up, then unschedules itself
func (c *Container) retryExtractor() {
	ctx, cancel := context.WithTimeout(context.Background(), c.Config.FaceAPI.Timeout)
	defer cancel()

	if err := c.Extractor.Init(ctx); err != nil {
		logger.SchedulerWarn("extractor_still_down", "Face API still not ready", map[string]interface{}{"error": err.Error()})
		return
	}
	logger.Scheduler("extractor_ready", "Face API ready", map[string]interface{}{"model": c.Extractor.Model()})

	// RemoveJob takes the scheduler lock, so leave the running job first
	go func() {
		if err := c.EventScheduler.RemoveJob(extractorRetryJobID); err != nil {
			logger.SchedulerWarn("extractor_retry_remove_failed", "Failed to remove extractor retry job", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (c *Container) Cleanup() error {
	logger.Startup("cleanup_started", "Starting cleanup...", nil)

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
		logger.Startup("scheduler_stopped", "Event scheduler stopped", nil)
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_closed", "Redis connection closed", nil)
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database connection", map[string]interface{}{"error": err.Error()})
			} else {
				logger.Startup("db_closed", "Database connection closed", nil)
			}
		}
	}

	logger.Startup("cleanup_completed", "Cleanup completed", nil)
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		FaceAuthService: c.FaceAuthService,
		SessionService:  c.SessionService,
	}
}

func (c *Container) GetHandlerDependencies() *handlers.Dependencies {
	return &handlers.Dependencies{
		DB:                   c.DB,
		RedisClient:          c.RedisClient,
		Extractor:            c.Extractor,
		IdentityRepository:   c.IdentityRepository,
		DescriptorRepository: c.DescriptorRepository,
	}
}
