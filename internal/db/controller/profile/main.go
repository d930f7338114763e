// Package profile implements database operations on profile documents.
package profile

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

// ByEmail returns the profile document matching the given email.
// When more than one document carries the same email the newest one
// (highest id) wins; the duplicates are reported via warning log so an
// operator can clean them up. ErrProfileNotFound is returned when no
// document matches.
func ByEmail(db *gorm.DB, email string) (*models.Profile, error) {
	var profiles []models.Profile

	res := db.Where("email = ?", email).Order("id DESC").Find(&profiles)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "failed to query profiles by email")
	}

	if len(profiles) == 0 {
		return nil, ErrProfileNotFound
	}

	if len(profiles) > 1 {
		log.Warn().Str("email", email).Int("count", len(profiles)).
			Msg("multiple profiles share one email, using the newest")
	}

	return &profiles[0], nil
}

// ByID returns the profile document with the given id.
func ByID(db *gorm.DB, id uint64) (*models.Profile, error) {
	var p models.Profile

	res := db.First(&p, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}

		return nil, errors.Wrap(res.Error, "failed to query profile by id")
	}

	return &p, nil
}

// List returns all profile documents ordered by id.
func List(db *gorm.DB) ([]models.Profile, error) {
	var profiles []models.Profile

	res := db.Order("id").Find(&profiles)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "failed to list profiles")
	}

	return profiles, nil
}

// Create stores a new profile document.
func Create(db *gorm.DB, p *models.Profile) error {
	if res := db.Create(p); res.Error != nil {
		return errors.Wrap(res.Error, "failed to create profile")
	}

	return nil
}

// Update persists changed fields of an existing profile document.
func Update(db *gorm.DB, p *models.Profile) error {
	if res := db.Save(p); res.Error != nil {
		return errors.Wrap(res.Error, "failed to update profile")
	}

	return nil
}

// DeleteByEmail removes every profile document matching the email.
// Returns the number of deleted documents.
func DeleteByEmail(db *gorm.DB, email string) (int64, error) {
	res := db.Where("email = ?", email).Delete(&models.Profile{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete profiles by email")
	}

	return res.RowsAffected, nil
}
