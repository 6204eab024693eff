// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "bankcards/internal/api"
	"bankcards/internal/api/handler"
	"bankcards/internal/auth"
	"bankcards/internal/cardcrypto"
	"bankcards/internal/config"
	"bankcards/internal/repository"
	"bankcards/internal/repository/sqlstore"
	"bankcards/internal/service"
	"bankcards/internal/util"
	"bankcards/internal/worker"
	"bankcards/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	UserRepository     repository.UserRepository
	CardRepository     repository.CardRepository
	TransferRepository repository.TransferRepository

	Cipher *cardcrypto.Cipher
	Tokens *auth.TokenManager

	// Services
	CardService service.CardService
	UserService service.UserService

	ExpirySweeper *worker.ExpirySweeper

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		app.Logger = util.GetLogger()
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "db_driver", cfg.DB.Driver)

	// 3. Connect to Database and bring the schema up to date
	database, err := db.Open(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	if err := db.ApplyMigrations(ctx, app.DB, app.Config.DB.Driver); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	app.Logger.Info("Database connection established.")

	// 4. Initialize Repositories
	app.UserRepository = sqlstore.NewUserRepository()
	app.CardRepository = sqlstore.NewCardRepository(app.Config.DB.Driver)
	app.TransferRepository = sqlstore.NewTransferRepository()
	app.Logger.Info("Repositories initialized.")

	// 5. Card number encryption and bearer tokens
	key, err := cardcrypto.ParseKey(app.Config.CardEncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid CARD_ENCRYPTION_KEY: %w", err)
	}
	app.Cipher, err = cardcrypto.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create card cipher: %w", err)
	}
	app.Tokens = auth.NewTokenManager(app.Config.JWTSecret, app.Config.JWTTTL)

	// 6. Initialize Services
	// Pass the concrete db.BeginTx, db.CommitTx, db.RollbackTx functions from pkg/db
	app.CardService = service.NewCardService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.UserRepository,
		app.CardRepository,
		app.TransferRepository,
		app.Cipher,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
		app.Logger,
	)
	app.UserService = service.NewUserService(app.DB, app.UserRepository, app.Tokens, app.Logger)
	if err := app.UserService.EnsureAdmin(ctx, app.Config.AdminEmail, app.Config.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap administrator: %w", err)
	}
	app.Logger.Info("Services initialized.")

	// 7. Background expiry sweep
	app.ExpirySweeper = worker.NewExpirySweeper(app.CardService, app.Config.ExpirySweepSchedule, app.Logger)
	if err := app.ExpirySweeper.Start(ctx); err != nil {
		return err
	}

	// 8. Initialize HTTP Handlers and Router
	cardHandler := handler.NewCardHandler(app.CardService, app.Logger)
	userHandler := handler.NewUserHandler(app.UserService, app.Logger)
	app.HTTPHandler = router.NewRouter(cardHandler, userHandler, app.Tokens, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.ExpirySweeper != nil {
		app.ExpirySweeper.Stop()
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
