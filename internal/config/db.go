package config

// Supported database engines.
const (
	// DBEngineSQLite selects the embedded sqlite engine.
	DBEngineSQLite = "sqlite"
	// DBEngineMySQL selects the mysql engine.
	DBEngineMySQL = "mysql"
)

// DB holds the database configuration settings.
type DB struct {
	Engine   string // sqlite or mysql
	Path     string // database file path (sqlite only)
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}
