package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/medsport/attachments/internal/config"
	"github.com/medsport/attachments/internal/db"
	"github.com/medsport/attachments/internal/repository"
	"github.com/medsport/attachments/internal/service"
	"github.com/medsport/attachments/internal/storage"
	"github.com/medsport/attachments/internal/validation"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Storage           storage.Storage
	AuthService       *service.AuthService
	AttachmentService *service.AttachmentService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	attachmentRepository := repository.NewAttachmentRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	constraints := validation.NewUploadConstraints(cfg.UploadAllowedMimeTypes, cfg.UploadMaxSize)
	attachmentService := service.NewAttachmentService(attachmentRepository, fileStorage, constraints, cfg.StoragePrefix)
	authService := service.NewAuthService(cfg.JWTSecret)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Storage:           fileStorage,
		AuthService:       authService,
		AttachmentService: attachmentService,
	}, nil
}

func (a *App) Close() error {
	return db.Close(a.DB)
}
