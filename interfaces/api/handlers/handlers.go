package handlers

import (
	"gorm.io/gorm"

	"faceauth/domain/repositories"
	"faceauth/domain/services"
	"faceauth/infrastructure/faceapi"
	"faceauth/infrastructure/redis"
)

// Services contains all the services needed for handlers
type Services struct {
	FaceAuthService services.FaceAuthService
	SessionService  services.SessionService
}

// Dependencies are the infrastructure handles reported by health checks.
// Any of them may be nil when disabled.
type Dependencies struct {
	DB                   *gorm.DB
	RedisClient          *redis.RedisClient
	Extractor            *faceapi.Extractor
	IdentityRepository   repositories.IdentityRepository
	DescriptorRepository repositories.DescriptorRepository
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth     *AuthHandler
	Identity *IdentityHandler
	Health   *HealthHandler
	Log      *LogHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services, deps *Dependencies) *Handlers {
	return &Handlers{
		Auth:     NewAuthHandler(services.FaceAuthService, services.SessionService),
		Identity: NewIdentityHandler(services.FaceAuthService),
		Health: NewHealthHandler(
			deps.DB,
			deps.RedisClient,
			deps.Extractor,
			deps.IdentityRepository,
			deps.DescriptorRepository,
		),
		Log: NewLogHandler(),
	}
}
