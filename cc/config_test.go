package cc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestParseFlags_NoArgsUsesDefaults(t *testing.T) {
	cfg, err := ParseFlags(nil)
	assert.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseFlags_ExplicitFlagOverridesDefault(t *testing.T) {
	cfg, err := ParseFlags([]string{"--numNodes", "7", "--mode", "2"})
	assert.NoError(t, err)
	assert.Equal(t, 7, cfg.NumNodes)
	assert.Equal(t, 2, cfg.Mode)
}

func TestParseFlags_ExplicitFlagWinsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("numNodes: 50\nmode: 1\n"), 0o644))

	cfg, err := ParseFlags([]string{"--config", path, "--numNodes", "3"})
	assert.NoError(t, err)
	assert.Equal(t, 3, cfg.NumNodes, "explicit flag must win over the file's value")
	assert.Equal(t, 1, cfg.Mode, "file value applies where no flag was given")
}

func TestParseFlags_InvalidNumChannelsRejected(t *testing.T) {
	_, err := ParseFlags([]string{"--numChannels", "0"})
	assert.Error(t, err)
	cerr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindConfigInvalid, cerr.Kind)
}

func TestParseFlags_UnknownConfigFileFails(t *testing.T) {
	_, err := ParseFlags([]string{"--config", "/nonexistent/path.yaml"})
	assert.Error(t, err)
}

func TestConfig_Validate_RejectsBadPositionModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PositionModel = "sphere"
	assert.Error(t, cfg.Validate())
}

func TestConfig_Validate_RejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestConfig_ModeProfile_DefaultIsFullStack(t *testing.T) {
	cfg := DefaultConfig()
	chMode, backoffMode, adaptive := cfg.modeProfile()
	assert.Equal(t, ChannelAnnouncement, chMode)
	assert.Equal(t, BackoffAdaptive, backoffMode)
	assert.True(t, adaptive)
}

func TestConfig_Placement_SelectsDiskOrGrid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PositionModel = "disk"
	cfg.Radius = 500
	_, ok := cfg.Placement().(DiskPlacement)
	assert.True(t, ok)

	cfg.PositionModel = "grid"
	_, ok = cfg.Placement().(GridPlacement)
	assert.True(t, ok)
}
