package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSection struct {
	ChunkSize int    `json:"chunk_size,omitempty"`
	Brand     string `json:"brand,omitempty"`
}

func TestSectionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ingest": {"chunk_size": 42, "brand": "Acme"}}`), 0o644))

	require.Nil(t, Load(path))

	section := Section[sampleSection]("ingest")
	require.NotNil(t, section)
	assert.Equal(t, 42, section.ChunkSize)
	assert.Equal(t, "Acme", section.Brand)

	assert.Nil(t, Section[sampleSection]("server"))
}

func TestMissingFileKeepsDefaults(t *testing.T) {
	require.Nil(t, Load(filepath.Join(t.TempDir(), "absent.json")))
	assert.Nil(t, Section[sampleSection]("ingest"))
}

func TestBrokenFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ingest": `), 0o644))
	assert.NotNil(t, Load(path))
}

func TestCheckIfEnvVarsPresent(t *testing.T) {
	t.Setenv("INVOICE_REMINDER_PRESENT", "yes")
	t.Setenv("INVOICE_REMINDER_EMPTY", " ")

	missing := CheckIfEnvVarsPresent("INVOICE_REMINDER_PRESENT", "INVOICE_REMINDER_EMPTY", "INVOICE_REMINDER_NEVER_SET")
	assert.Equal(t, []string{"INVOICE_REMINDER_EMPTY", "INVOICE_REMINDER_NEVER_SET"}, missing)
}

func TestGetPackageName(t *testing.T) {
	assert.Equal(t, "config", GetPackageName())
}
