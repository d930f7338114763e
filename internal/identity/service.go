package identity

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

// Service owns the account table and the identity-change event stream.
// All sign-in, sign-up, sign-out and session-restore paths go through
// it so that every identity change is published exactly once, in order.
type Service struct {
	db *gorm.DB

	mu   sync.Mutex
	seq  uint64
	subs []Subscriber
}

// NewService creates the identity service on top of the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Subscribe registers a handler for identity change events. Handlers
// registered before the web server starts see every event.
func (s *Service) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs = append(s.subs, fn)
}

// publish assigns the next sequence number and delivers the event to
// every subscriber while holding the lock, so subscribers observe
// events in sequence order.
func (s *Service) publish(sessionID string, ident *Identity) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev := Event{Seq: s.seq, SessionID: sessionID, Identity: ident}

	for _, fn := range s.subs {
		fn(ev)
	}

	return ev
}

// SignIn authenticates an email/password pair and publishes the
// resulting identity for the session. The error does not distinguish
// an unknown email from a wrong password.
func (s *Service) SignIn(sessionID, email, password string) (*Identity, error) {
	account, err := s.accountByEmail(email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	if !account.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	account.LastSignInAt = &now

	if err := s.db.Save(account).Error; err != nil {
		return nil, errors.Wrap(err, "failed to record sign-in time")
	}

	ident := identityOf(account)
	s.publish(sessionID, ident)

	log.Info().Str("uid", account.UID).Msg("signed in")

	return ident, nil
}

// SignUp creates a new account together with its profile document
// carrying the chosen role and signs the session in. An empty role
// falls back to the plain user role.
func (s *Service) SignUp(sessionID, email, password, name string, role models.Role) (*Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if role == "" {
		role = models.RoleUser
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "failed to check existing accounts")
	}

	if count > 0 {
		return nil, ErrEmailTaken
	}

	account := models.Account{
		UID:         uuid.NewString(),
		Email:       email,
		Password:    models.HashPassword(password),
		DisplayName: name,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return errors.Wrap(err, "failed to create account")
		}

		p := models.Profile{Email: email, Name: name, Role: role}
		if err := tx.Create(&p).Error; err != nil {
			return errors.Wrap(err, "failed to create profile")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	ident := identityOf(&account)
	s.publish(sessionID, ident)

	log.Info().Str("uid", account.UID).Msg("account registered")

	return ident, nil
}

// SignOut publishes a signed-out event for the session.
func (s *Service) SignOut(sessionID string) {
	s.publish(sessionID, nil)
}

// Restore re-publishes the identity of an already authenticated session,
// looked up by uid. It is used when a session cookie arrives for which
// no in-memory state exists, for example after a restart.
func (s *Service) Restore(sessionID, uid string) (*Identity, error) {
	var account models.Account

	err := s.db.Where("uid = ?", uid).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	if account.Disabled {
		return nil, ErrAccountDisabled
	}

	ident := identityOf(&account)
	s.publish(sessionID, ident)

	return ident, nil
}

// AccountByUID returns the account with the given uid.
func (s *Service) AccountByUID(uid string) (*models.Account, error) {
	var account models.Account

	err := s.db.Where("uid = ?", uid).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return &account, nil
}

func (s *Service) accountByEmail(email string) (*models.Account, error) {
	var account models.Account

	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return &account, nil
}

func identityOf(a *models.Account) *Identity {
	return &Identity{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
	}
}
