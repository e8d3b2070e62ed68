package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tagmesh/tagmesh-backend/internal/pkg/logger"
	"github.com/tagmesh/tagmesh-backend/internal/types"
	"github.com/tagmesh/tagmesh-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "tagmesh", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Tag{},
		&types.TagRelationship{},
		&types.RelationshipSuggestion{},
		&types.RelationshipFeedback{},
		&types.TagCooccurrence{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Partial unique indexes carry the concurrency guarantees: one active
	// edge per pair/type, one pending suggestion per pair/type, one vote
	// per user per scope. Racing writers lose on these and are folded into
	// the existing row by the services.
	s.log.Info("Creating partial unique indexes...")
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_relationship_active_pair
		   ON tag_relationship (tag_a_id, tag_b_id, type)
		   WHERE status = 'active'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_suggestion_pending_pair
		   ON relationship_suggestion (tag_a_id, tag_b_id, type)
		   WHERE status = 'pending'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_feedback_user_edge
		   ON relationship_feedback (user_id, edge_id)
		   WHERE edge_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_feedback_user_pair
		   ON relationship_feedback (user_id, tag_a_id, tag_b_id, type)
		   WHERE edge_id IS NULL`,
	}
	for _, stmt := range statements {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create unique index: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
