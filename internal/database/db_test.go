package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("app", "s3cret", "db.local", "3306", "shopcore")
	assert.Equal(t,
		"app:s3cret@tcp(db.local:3306)/shopcore?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		dsn)
}

func TestBuildDSNEmptyPassword(t *testing.T) {
	dsn := buildDSN("app", "", "localhost", "3306", "shopcore")
	assert.Equal(t,
		"app@tcp(localhost:3306)/shopcore?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		dsn)
}

// Updates that write unchanged values must still count as matched rows, or a
// no-op update of an existing row would read as a missing row.
func TestBuildDSNReportsFoundRows(t *testing.T) {
	assert.Contains(t, buildDSN("u", "", "h", "3306", "d"), "clientFoundRows=true")
}

func TestPoolSettingsFromEnv(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_IDLE_CONNS", "junk")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")

	assert.Equal(t, 50, poolInt("DB_MAX_OPEN_CONNS", defaultMaxOpenConns))
	assert.Equal(t, defaultMaxIdleConns, poolInt("DB_MAX_IDLE_CONNS", defaultMaxIdleConns))
	assert.Equal(t, 5*time.Minute, poolDur("DB_CONN_MAX_LIFETIME", defaultConnMaxLifetime))
}
