package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/vet-benchmarks-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "warehouse",
		Port:     5433,
		User:     "reader",
		Password: "secret",
		Name:     "hmis",
		SSLMode:  "require",
	})

	assert.Contains(t, dsn, "host=warehouse port=5433")
	assert.Contains(t, dsn, "dbname=hmis sslmode=require")
	assert.Contains(t, dsn, "default_transaction_read_only=on")
}
