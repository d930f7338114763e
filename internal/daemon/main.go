// Package daemon assembles the application: database, session and
// state storage, identity service, mailer and the web service.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/storage"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionsqlite "github.com/gofiber/storage/sqlite3/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/dsn"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/logger"
	"github.com/GoUserDesk/GoUserDesk/internal/mailer"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/web"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	if err := logger.Init(cfg.Log); err != nil {
		log.Fatal().Err(err).Msg("failed to init logger")
	}

	db := openDatabase(cfg)

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	// session records and the auth state cache share one storage backend
	stateStorage := openStorage(cfg)
	session.Init(stateStorage)

	identityService := identity.NewService(db)

	states := authstate.NewManager(
		authstate.NewCache(stateStorage, cfg.Webserver.Session.ExpiryTime),
		web.ProfileLookup(db),
	)

	mailService, err := mailer.New(cfg.Mailer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init mailer")
	}

	tokens := token.NewJWTManager(cfg.Auth.Token.Secret, cfg.Auth.Token.Expiry, cfg.Auth.Token.Issuer)

	return &Daemon{
		cfg: cfg,
		webService: web.New(cfg, web.Deps{
			DB:       db,
			Identity: identityService,
			States:   states,
			Tokens:   tokens,
			Mailer:   mailService,
		}),
	}
}

func openDatabase(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	switch cfg.DB.Engine {
	case config.DBEngineMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.DBEngineSQLite:
		dialector = sqlite.Open(cfg.DB.Path)
	default:
		log.Fatal().Str("engine", cfg.DB.Engine).Msg("unsupported database engine")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	return db
}

func openStorage(cfg *config.Config) storage.Storage {
	if cfg.DB.Engine == config.DBEngineMySQL {
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         "sessions",
		})
	}

	return sessionsqlite.New(sessionsqlite.Config{
		Database: cfg.DB.Path + "-sessions",
		Table:    "sessions",
	})
}
