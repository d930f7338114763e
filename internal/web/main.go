package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/authstate"
	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/controller/profile"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	fiberlogger "github.com/GoUserDesk/GoUserDesk/internal/logger/adapter/fiber"
	"github.com/GoUserDesk/GoUserDesk/internal/mailer"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/users"
	"github.com/GoUserDesk/GoUserDesk/internal/web/guard"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/account"
	adminusers "github.com/GoUserDesk/GoUserDesk/internal/web/handler/admin/users"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/api"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/home"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/login"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/logout"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/oidc"
	"github.com/GoUserDesk/GoUserDesk/internal/web/handler/register"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

// CheckAlivePath is probed by load balancers.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Deps are the collaborators the web service wires into its handlers.
type Deps struct {
	DB       *gorm.DB
	Identity *identity.Service
	States   *authstate.Manager
	Tokens   *token.JWTManager
	Mailer   *mailer.Mailer
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	// Wait interrupt or shutdown request through /shutdown
	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration and
// collaborators. It wires the identity event stream into the state
// manager, installs the route guard and registers every handler.
func New(cfg *config.Config, deps Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps.DB == nil || deps.Identity == nil || deps.States == nil {
		panic("missing web service dependencies")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "GoUserDesk",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// every identity change flows into the per-session state stores
	deps.Identity.Subscribe(deps.States.Dispatch)

	// sessions that survive a restart are restored on first contact
	deps.States.SetRestoreFunc(func(sessionID string) {
		sessData := new(session.Data)
		if err := sessData.Read(sessionID); err != nil || sessData.UID == "" {
			// unknown session: whoever waits gets a definitive guest
			if store, ok := deps.States.Get(sessionID); ok {
				store.MarkInitialized()
			}

			return
		}

		if _, err := deps.Identity.Restore(sessionID, sessData.UID); err != nil {
			log.Warn().Err(err).Msg("failed to restore session identity")

			if store, ok := deps.States.Get(sessionID); ok {
				store.MarkInitialized()
			}
		}
	})

	// route guard
	app.Use(guard.New(guard.Config{
		Policy: guard.Policy{
			{Prefix: adminusers.Path, Roles: []models.Role{models.RoleAdmin}},
			{Prefix: account.Path, Roles: []models.Role{models.RoleUser, models.RoleAdmin}},
		},
		States:      deps.States,
		WaitTimeout: cfg.Guard.WaitTimeout,
		LoginPath:   login.Path,
		HomePath:    home.Path,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  deps.DB,
	}

	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("ok")
	})

	usersService := users.NewService(deps.DB, deps.Mailer)

	// init handlers (they register their own routes)
	initHandlers(app, cfg, deps, usersService)

	return service
}

func initHandlers(app *fiber.App, cfg *config.Config, deps Deps, usersService *users.Service) {
	if err := login.Handler.Init(app, cfg, deps.Identity, deps.Tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init login handler")
	}

	if err := register.Handler.Init(app, cfg, deps.Identity, deps.Tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init register handler")
	}

	logout.Handler.Init(app, cfg, deps.Identity, deps.States)

	oidc.Handler.Init(app, cfg, deps.Identity)

	if err := home.Handler.Init(app, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to init home handler")
	}

	if err := account.Handler.Init(app, cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to init account handler")
	}

	if err := adminusers.Handler.Init(app, cfg, usersService); err != nil {
		log.Fatal().Err(err).Msg("failed to init admin users handler")
	}

	if err := api.Handler.Init(app, cfg, usersService, deps.Tokens); err != nil {
		log.Fatal().Err(err).Msg("failed to init api handler")
	}
}

// ProfileLookup adapts the profile controller for the state manager.
func ProfileLookup(db *gorm.DB) authstate.ProfileLookup {
	return func(email string) (*models.Profile, error) {
		return profile.ByEmail(db, email)
	}
}
