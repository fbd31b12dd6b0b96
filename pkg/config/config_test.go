package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := GetDefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 2000, c.QueueSize)
	assert.Equal(t, 6*time.Hour, c.PruneInterval)
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(c *C)
		field  string
	}{
		{"backend", func(c *C) { c.Backend = "sqlite" }, "Backend"},
		{"empty backend", func(c *C) { c.Backend = "" }, "Backend"},
		{"max size zero", func(c *C) { c.MaxSizeMB = 0 }, "MaxSizeMB"},
		{"max size negative", func(c *C) { c.MaxSizeMB = -5 }, "MaxSizeMB"},
		{"queue", func(c *C) { c.QueueSize = 0 }, "QueueSize"},
		{"interval", func(c *C) { c.PruneInterval = 0 }, "PruneInterval"},
		{"delay", func(c *C) { c.PruneDelay = -time.Second }, "PruneDelay"},
		{"log level", func(c *C) { c.LogLevel = "loud" }, "LogLevel"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := GetDefaultConfig()
			tc.modify(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigInvalid))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
	var nilConfig *C
	assert.ErrorIs(t, nilConfig.Validate(), ErrConfigInvalid)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	c := GetDefaultConfig()
	c.Backend = BackendEventstore
	c.DBPath = "/var/cache/x"
	c.MaxSizeMB = 12
	c.EnableFTS = true
	require.NoError(t, c.Save(path))
	loaded := &C{}
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, c, loaded)
	assert.Error(t, loaded.Load(filepath.Join(t.TempDir(), "missing.json")))
}
