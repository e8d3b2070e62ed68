package app

import (
	"time"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	RelatedCacheTTL time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	relatedCacheTTLSeconds := utils.GetEnvAsInt("RELATED_CACHE_TTL", 300, log)
	return Config{
		JWTSecretKey:    jwtSecretKey,
		RelatedCacheTTL: time.Duration(relatedCacheTTLSeconds) * time.Second,
	}
}
