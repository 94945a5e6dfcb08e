package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/pkg/version"
)

func TestVersionCmd_Default(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "codeindex")
	assert.Contains(t, out, version.Version)
}

func TestVersionCmd_Short(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "version", "--json")
	require.NoError(t, err)

	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)
}
