package register

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sqlite3 "github.com/gofiber/storage/sqlite3/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
	"github.com/GoUserDesk/GoUserDesk/internal/db/models"
	"github.com/GoUserDesk/GoUserDesk/internal/identity"
	"github.com/GoUserDesk/GoUserDesk/internal/token"
	"github.com/GoUserDesk/GoUserDesk/internal/web/session"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Profile{}))

	session.Init(sqlite3.New(sqlite3.Config{Database: ":memory:"}))

	cfg := &config.Config{DevMode: true}
	cfg.Webserver.Session.ExpiryTime = time.Hour

	app := fiber.New()

	tokens := token.NewJWTManager("test-secret", time.Hour, "go-user-desk")
	require.NoError(t, Handler.Init(app, cfg, identity.NewService(db), tokens))

	return app, db
}

func postRegister(t *testing.T, app *fiber.App, body map[string]string) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, Path, bytes.NewReader(payload))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func TestRegisterStoresChosenRole(t *testing.T) {
	app, db := setupTestApp(t)

	resp := postRegister(t, app, map[string]string{
		"email":    "boss@example.com",
		"password": "secret-password",
		"name":     "Boss",
		"role":     "admin",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var p models.Profile
	require.NoError(t, db.Where("email = ?", "boss@example.com").First(&p).Error)
	assert.Equal(t, models.RoleAdmin, p.Role)
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	app, db := setupTestApp(t)

	resp := postRegister(t, app, map[string]string{
		"email":    "plain@example.com",
		"password": "secret-password",
		"name":     "Plain",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var p models.Profile
	require.NoError(t, db.Where("email = ?", "plain@example.com").First(&p).Error)
	assert.Equal(t, models.RoleUser, p.Role)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	app, db := setupTestApp(t)

	resp := postRegister(t, app, map[string]string{
		"email":    "sneaky@example.com",
		"password": "secret-password",
		"name":     "Sneaky",
		"role":     "owner",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Account{}).Count(&count).Error)
	assert.Zero(t, count)
}
