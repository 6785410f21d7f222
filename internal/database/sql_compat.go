package database

import (
	"fmt"
	"os"
	"strings"
)

// GetDriver returns the active database driver name.
func GetDriver() string {
	// In test mode, prefer TEST_ prefixed environment variables
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = "sqlite3"
	}
	return strings.ToLower(driver)
}

// SetDriver overrides the active driver for the process. Used by cmd wiring
// after config load and by tests.
func SetDriver(name string) {
	os.Setenv("DB_DRIVER", strings.ToLower(name))
}

// IsPostgreSQL returns true when running against PostgreSQL.
func IsPostgreSQL() bool {
	return GetDriver() == "postgres"
}

// IsMySQL returns true when running against MySQL/MariaDB.
func IsMySQL() bool {
	d := GetDriver()
	return d == "mysql" || d == "mariadb"
}

// ConvertPlaceholders rewrites '?' placeholders to '$1, $2, ...' when the
// active driver is PostgreSQL. Queries across the codebase are written in
// '?' form so the same SQL runs on sqlite, MySQL and Postgres.
func ConvertPlaceholders(query string) string {
	if !IsPostgreSQL() {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// InPlaceholders returns a comma separated placeholder list for an IN clause
// with n elements.
func InPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
