package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadFileConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, fileConfig{}, cfg)
}

func TestLoadFileConfig_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	contents := "language: Go\nbug_type: NPD\ncall_depth: 7\nreachable: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".dfbscan.yaml"), []byte(contents), 0o644))

	cfg, err := loadFileConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "Go", cfg.Language)
	assert.Equal(t, "NPD", cfg.BugType)
	assert.Equal(t, 7, cfg.CallDepth)
	assert.True(t, cfg.Reachable)
}

func TestApplyFileConfig_DoesNotOverrideExplicitFlags(t *testing.T) {
	defer func() {
		scanFlags.language = ""
		scanFlags.bugType = ""
	}()

	require.NoError(t, scanCmd.Flags().Set("bug-type", "UAF"))
	scanFlags.language = ""

	applyFileConfig(scanCmd, fileConfig{Language: "Python", BugType: "NPD"})

	assert.Equal(t, "Python", scanFlags.language, "unset flag should take the file config value")
	assert.Equal(t, "UAF", scanFlags.bugType, "explicitly set flag must not be overridden")
}
