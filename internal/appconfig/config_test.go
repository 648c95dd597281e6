package appconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigTerminalLayout(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, float64(140), cfg.Terminal.Padding)
	assert.Equal(t, 24, cfg.Terminal.Rows)
	assert.Equal(t, []string{"/bin/sh"}, cfg.Terminal.ExecCommand)
	assert.Equal(t, 2, cfg.Terminal.FollowSeconds)
	assert.Empty(t, cfg.HTTP.BasePath)
}

func TestDefaultConfigEngineAddressIsUnixSocket(t *testing.T) {
	cfg, err := DefaultConfig()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.Engine.Address, "unix://"), cfg.Engine.Address)
	assert.True(t, strings.HasSuffix(cfg.Engine.Address, "podman/podman.sock"), cfg.Engine.Address)
}
