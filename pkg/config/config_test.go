package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Keywords.MinLength)
	assert.Equal(t, "english", cfg.Keywords.Language)
	assert.False(t, cfg.Keywords.Stemming)
	assert.Equal(t, 70.0, cfg.ATS.IndustryAverage)
	assert.Equal(t, "score-events", cfg.Kafka.Topics.ScoreEvents)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
keywords:
  minLength: 4
  language: en
  extraStopwords: [responsibilities, requirements]
  stemming: true
redis:
  enabled: true
  cacheTTL: 30s
ats:
  industryAverage: 65
  placeholders:
    original:
      Skills Hit: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Keywords.MinLength)
	assert.Equal(t, "en", cfg.Keywords.Language)
	assert.Equal(t, []string{"responsibilities", "requirements"}, cfg.Keywords.ExtraStopwords)
	assert.True(t, cfg.Keywords.Stemming)
	assert.Equal(t, "lower", cfg.Keywords.CaseFolding)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 65.0, cfg.ATS.IndustryAverage)
	assert.Equal(t, 50.0, cfg.ATS.Placeholders["original"]["Skills Hit"])
}

func TestLoadRejectsInvalidKeywords(t *testing.T) {
	tests := map[string]string{
		"min length zero":  "keywords:\n  minLength: 0\n",
		"unknown language": "keywords:\n  language: latin\n",
		"bad folding":      "keywords:\n  caseFolding: upper\n",
		"bad average":      "ats:\n  industryAverage: 120\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RF_SERVER_PORT", "7070")
	t.Setenv("RF_KEYWORDS_LANGUAGE", "english")
	t.Setenv("RF_KEYWORDS_STEMMING", "true")
	t.Setenv("RF_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RF_STORAGE_BUCKET", "resumes")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Keywords.Stemming)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "resumes", cfg.Storage.Bucket)
}

func TestEnvMalformedValuesAreRejected(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"RF_KEYWORDS_MIN_LENGTH", "three"},
		{"RF_KEYWORDS_STEMMING", "yes"},
		{"RF_SERVER_PORT", "80a"},
		{"RF_POSTGRES_PORT", "five"},
		{"RF_POSTGRES_ENABLED", "on"},
		{"RF_KAFKA_ENABLED", "enabled"},
		{"RF_REDIS_ENABLED", "y"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			require.ErrorIs(t, err, apperrors.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestEnvBooleanOverridesYAML(t *testing.T) {
	path := writeConfig(t, "keywords:\n  stemming: true\n")
	t.Setenv("RF_KEYWORDS_STEMMING", "false")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Keywords.Stemming)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := Default().Postgres.DSN()
	assert.Equal(t, "host=localhost port=5432 user=resumefit password=localdev dbname=resumefit sslmode=disable", dsn)
}
