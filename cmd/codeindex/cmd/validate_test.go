package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/config"
	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

const validOllamaYAML = `configSchemaVersion: 1.0.0
codebaseIndexEnabled: true
embedderProvider: ollama
ollamaOptions:
  ollamaBaseUrl: http://localhost:11434
`

func TestValidateCmd_ValidFile(t *testing.T) {
	// Given: a valid ollama configuration file
	env := newTestEnv(t)
	path := env.write(t, "codeindex.yaml", validOllamaYAML)

	// When: validating it
	out, _, err := env.run(t, "validate", "--file", path)

	// Then: it is reported valid
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid (provider: ollama)")
}

func TestValidateCmd_InvalidFile(t *testing.T) {
	// Given: a config with an out-of-range search score and no ollama URL
	env := newTestEnv(t)
	path := env.write(t, "bad.yaml", "embedderProvider: ollama\nsearchMinScore: 7\n")

	// When: validating it
	out, _, err := env.run(t, "validate", "--file", path)

	// Then: the errors are listed and a config error is returned
	require.Error(t, err)
	assert.Equal(t, cierrors.ErrCodeConfigInvalid, cierrors.GetCode(err))
	assert.Contains(t, out, "Configuration is invalid")
	assert.Contains(t, out, config.FieldOllamaBaseURL)
	assert.Contains(t, out, "searchMinScore")
}

func TestValidateCmd_JSON(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "codeindex.yaml", validOllamaYAML)

	out, _, err := env.run(t, "validate", "--file", path, "--json", "--production")
	require.NoError(t, err)

	var res config.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Valid)
	assert.True(t, res.Metadata.Production)
}

func TestValidateCmd_SkipProductionChecksEnv(t *testing.T) {
	// Given: every production check skipped through the environment
	env := newTestEnv(t)
	path := env.write(t, "codeindex.yaml", validOllamaYAML)
	t.Setenv(skipChecksEnv, "all")

	// When: validating in production mode
	out, _, err := env.run(t, "validate", "--file", path, "--json", "--production")
	require.NoError(t, err)

	// Then: no production warnings are produced
	var res config.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	for _, w := range res.Warnings {
		assert.NotEqual(t, config.CodeProductionSafety, w.Code)
		assert.NotEqual(t, config.CodeProductionRecommendation, w.Code)
	}
	assert.Len(t, res.Metadata.SkippedChecks, len(config.ProductionChecks))
}

func TestValidateCmd_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "validate", "--file", "/nonexistent/codeindex.yaml")

	require.Error(t, err)
	assert.Equal(t, cierrors.ErrCodeConfigNotFound, cierrors.GetCode(err))
}

func TestValidateCmd_StoredConfigUsesSecretsFile(t *testing.T) {
	// Given: an empty store, so the defaults (openai) apply
	env := newTestEnv(t)

	// When: validating without the API key
	_, _, err := env.run(t, "validate")

	// Then: the missing key makes it invalid
	require.Error(t, err)

	// When: the key is provided through the secrets file
	env.write(t, "secrets.env", config.SecretOpenAIKey+"=sk-proj-9f8e7d6c5b4a3210\n")
	out, _, err := env.run(t, "validate")

	// Then: the stored configuration validates
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid (provider: openai)")
}

func TestSkippedChecks(t *testing.T) {
	t.Setenv(skipChecksEnv, "timeouts, retries,bogus")

	checks := skippedChecks()

	assert.Equal(t, []config.ProductionCheck{config.CheckTimeouts, config.CheckRetries}, checks)
}
