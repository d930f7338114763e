package daemon

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
)

const (
	seedAdminEmail    = "admin@localhost"
	seedAdminPassword = "changeme"
)

// seed creates the initial administrator when the account table is
// empty, so a fresh install can be signed into and managed.
func seed(_ *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.Account{}).Count(&count)
	if count > 0 {
		return
	}

	account := models.Account{
		UID:         uuid.NewString(),
		Email:       seedAdminEmail,
		Password:    models.HashPassword(seedAdminPassword),
		DisplayName: "Administrator",
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		return tx.Create(&models.Profile{
			Email: seedAdminEmail,
			Name:  "Administrator",
			Role:  models.RoleAdmin,
		}).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	log.Warn().Str("email", seedAdminEmail).Msg("seeded default admin account, change its password")
}
