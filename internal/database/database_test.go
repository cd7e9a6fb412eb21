package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"github.com/Anereges/AITB-Employee-Management-System/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(&config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "ems",
		Password: "secret",
		Name:     "ems",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=localhost user=ems password=secret dbname=ems port=5432 sslmode=disable", dsn)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{in: "silent", want: logger.Silent},
		{in: "ERROR", want: logger.Error},
		{in: "info", want: logger.Info},
		{in: "", want: logger.Warn},
		{in: "verbose", want: logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}
