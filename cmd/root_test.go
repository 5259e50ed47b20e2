package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["version"])
}

func TestVersionDefaults(t *testing.T) {
	assert.Equal(t, "development", Version)
	assert.Equal(t, "unknown", BuildTime)
	assert.Equal(t, "unknown", GitCommit)
}
