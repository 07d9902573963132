package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dfbscan/dfbscan/tsanalyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    tsanalyzer.Language
		wantErr bool
	}{
		{"C", tsanalyzer.LanguageC, false},
		{"c", tsanalyzer.LanguageC, false},
		{"Cpp", tsanalyzer.LanguageCPP, false},
		{"c++", tsanalyzer.LanguageCPP, false},
		{"Java", tsanalyzer.LanguageJava, false},
		{"Python", tsanalyzer.LanguagePython, false},
		{"Go", tsanalyzer.LanguageGo, false},
		{"rust", "", true},
	}
	for _, tt := range tests {
		got, err := parseLanguage(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestExtensionsFor(t *testing.T) {
	assert.Equal(t, []string{".c", ".h"}, extensionsFor(tsanalyzer.LanguageC))
	assert.Contains(t, extensionsFor(tsanalyzer.LanguageCPP), ".cpp")
	assert.Equal(t, []string{".java"}, extensionsFor(tsanalyzer.LanguageJava))
	assert.Equal(t, []string{".py"}, extensionsFor(tsanalyzer.LanguagePython))
	assert.Equal(t, []string{".go"}, extensionsFor(tsanalyzer.LanguageGo))
}

func TestShouldSkipDir(t *testing.T) {
	assert.True(t, shouldSkipDir("/repo/.git"))
	assert.True(t, shouldSkipDir("/repo/node_modules/left-pad"))
	assert.False(t, shouldSkipDir("/repo/src/main.go"))
}

func TestDiscoverSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte("x = 1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "c.go"), []byte("package c"), 0o644))

	sources, warnings := discoverSources(dir, []string{".go"})
	assert.Empty(t, warnings)
	require.Len(t, sources, 1)
	assert.Equal(t, filepath.Join(dir, "a.go"), sources[0].Path)
}

func TestScanCommandRegistersFlags(t *testing.T) {
	for _, name := range []string{"project", "language", "bug-type", "call-depth",
		"max-symbolic-workers", "max-neural-workers", "reachable", "model",
		"temperature", "format"} {
		flag := scanCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag %q must be registered", name)
	}
}
