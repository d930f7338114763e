// Package users implements the administrative operations facade:
// listing, updating and deleting users and broadcasting email to them.
package users

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/db/controller/profile"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/mailer"
)

// ErrUserNotFound indicates no account matches the given uid.
var ErrUserNotFound = errors.New("user not found")

// Sender delivers a broadcast message and returns its message id.
type Sender interface {
	Send(ctx context.Context, msg *mailer.Message) (string, error)
}

// Service bundles the admin operations on accounts and profiles.
type Service struct {
	db     *gorm.DB
	sender Sender
}

// NewService creates the facade on top of the database and mail sender.
func NewService(db *gorm.DB, sender Sender) *Service {
	return &Service{db: db, sender: sender}
}

// List returns every account merged with its profile document.
func (s *Service) List() ([]User, error) {
	var accounts []models.Account

	if err := s.db.Order("created_at").Find(&accounts).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}

	out := make([]User, 0, len(accounts))

	for i := range accounts {
		p, err := profile.ByEmail(s.db, accounts[i].Email)
		if err != nil && !errors.Is(err, profile.ErrProfileNotFound) {
			return nil, err
		}

		out = append(out, Format(&accounts[i], p))
	}

	return out, nil
}

// UpdateResult names the fields changed on each of the two records.
type UpdateResult struct {
	AccountFields []string `json:"accountFields"`
	ProfileFields []string `json:"profileFields"`
}

// Update validates the changes and applies them to the account and, for
// name and role, to the profile document. A missing profile document is
// created on the fly so role changes always stick.
func (s *Service) Update(uid string, u *Update) (*UpdateResult, error) {
	if err := ValidateUpdate(u); err != nil {
		return nil, err
	}

	account, err := s.accountByUID(uid)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{}

	accountChanges := map[string]interface{}{}

	if u.Name != nil {
		accountChanges["display_name"] = *u.Name

		result.AccountFields = append(result.AccountFields, "displayName")
	}

	if u.Email != nil {
		accountChanges["email"] = strings.ToLower(strings.TrimSpace(*u.Email))

		result.AccountFields = append(result.AccountFields, "email")
	}

	if u.PhoneNumber != nil {
		accountChanges["phone_number"] = *u.PhoneNumber

		result.AccountFields = append(result.AccountFields, "phoneNumber")
	}

	if u.Disabled != nil {
		accountChanges["disabled"] = *u.Disabled

		result.AccountFields = append(result.AccountFields, "disabled")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(accountChanges) > 0 {
			err := tx.Model(&models.Account{}).Where("uid = ?", uid).
				Updates(accountChanges).Error
			if err != nil {
				return errors.Wrap(err, "failed to update account")
			}
		}

		return s.updateProfile(tx, account, u, result)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("uid", uid).
		Strs("account_fields", result.AccountFields).
		Strs("profile_fields", result.ProfileFields).
		Msg("user updated")

	return result, nil
}

// updateProfile mirrors name, role and email changes onto the profile
// document joined by the account's email.
func (s *Service) updateProfile(tx *gorm.DB, account *models.Account, u *Update, result *UpdateResult) error {
	if u.Name == nil && u.Role == nil && u.Email == nil {
		return nil
	}

	p, err := profile.ByEmail(tx, account.Email)

	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		p = &models.Profile{Email: account.Email, Name: account.DisplayName, Role: models.RoleUser}
		if err := profile.Create(tx, p); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if u.Name != nil {
		p.Name = *u.Name

		result.ProfileFields = append(result.ProfileFields, "name")
	}

	if u.Role != nil {
		p.Role = models.Role(*u.Role)

		result.ProfileFields = append(result.ProfileFields, "role")
	}

	if u.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*u.Email))

		result.ProfileFields = append(result.ProfileFields, "email")
	}

	return profile.Update(tx, p)
}

// DeleteResult describes what a deletion removed.
type DeleteResult struct {
	UID             string `json:"uid"`
	Email           string `json:"email"`
	ProfilesRemoved int64  `json:"profilesRemoved"`
}

// Delete removes the account and, best effort, every profile document
// carrying its email. A failure on the profile side does not undo the
// account deletion.
func (s *Service) Delete(uid string) (*DeleteResult, error) {
	account, err := s.accountByUID(uid)
	if err != nil {
		return nil, err
	}

	if err := s.db.Delete(&models.Account{}, "uid = ?", uid).Error; err != nil {
		return nil, errors.Wrap(err, "failed to delete account")
	}

	result := &DeleteResult{UID: account.UID, Email: account.Email}

	n, err := profile.DeleteByEmail(s.db, account.Email)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("account deleted but profile cleanup failed")

		return result, nil
	}

	result.ProfilesRemoved = n

	log.Info().Str("uid", uid).Int64("profiles_removed", n).Msg("user deleted")

	return result, nil
}

// IsAdmin reports whether the profile for the given email carries the
// admin role.
func (s *Service) IsAdmin(email string) bool {
	p, err := profile.ByEmail(s.db, email)
	if err != nil {
		return false
	}

	return p.Role == models.RoleAdmin
}

// Broadcast sends the message to the given recipients and returns the
// message id.
func (s *Service) Broadcast(ctx context.Context, msg *mailer.Message) (string, error) {
	return s.sender.Send(ctx, msg)
}

func (s *Service) accountByUID(uid string) (*models.Account, error) {
	var account models.Account

	err := s.db.Where("uid = ?", uid).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return &account, nil
}
