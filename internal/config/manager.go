package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	cierrors "github.com/RepairYourTech/Roo-Code-Knowledge-sub005/internal/errors"
)

// GlobalStateKey is the store key holding the persisted configuration.
const GlobalStateKey = "codebaseIndexConfig"

// Secret store keys. Secrets are never written into the global-state record.
const (
	SecretOpenAIKey           = "codeIndexOpenAiKey"
	SecretQdrantAPIKey        = "codeIndexQdrantApiKey"
	SecretOpenAICompatibleKey = "codebaseIndexOpenAiCompatibleApiKey"
	SecretGeminiKey           = "codebaseIndexGeminiApiKey"
	SecretMistralKey          = "codebaseIndexMistralApiKey"
	SecretVercelAIGatewayKey  = "codebaseIndexVercelAiGatewayApiKey"
	SecretOpenRouterKey       = "codebaseIndexOpenRouterApiKey"
	SecretGraphPassword       = "codebaseIndexGraphPassword"
)

// SecretKeys lists every secret the Manager reads.
var SecretKeys = []string{
	SecretOpenAIKey,
	SecretQdrantAPIKey,
	SecretOpenAICompatibleKey,
	SecretGeminiKey,
	SecretMistralKey,
	SecretVercelAIGatewayKey,
	SecretOpenRouterKey,
	SecretGraphPassword,
}

// Store is the persisted key-value and secret store the Manager reads from.
// Get returns nil data for an absent key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetSecret(ctx context.Context, key string) (string, error)
	RefreshSecrets(ctx context.Context) error
	UpdateGlobalState(ctx context.Context, key string, value any) error
}

// LoadResult is what Manager.Load returns.
type LoadResult struct {
	Config     *CodeIndexConfig
	Validation Result
	Migrated   bool
	// BackupPath is the sink-relative backup written during migration.
	BackupPath string
}

// Manager loads, migrates, validates and saves the configuration.
type Manager struct {
	store    Store
	migrator *Migrator
	lock     *MigrationLock
	opts     Options
	env      bool
	logger   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithValidationOptions sets the options used for every validation run.
func WithValidationOptions(o Options) ManagerOption {
	return func(m *Manager) { m.opts = o }
}

// WithMigrationLock serializes migrations with l.
func WithMigrationLock(l *MigrationLock) ManagerOption {
	return func(m *Manager) { m.lock = l }
}

// WithEnvOverrides applies CODEINDEX_* overrides after loading.
func WithEnvOverrides() ManagerOption {
	return func(m *Manager) { m.env = true }
}

// WithManagerLogger sets the logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager reading from store and migrating with migrator.
func NewManager(store Store, migrator *Migrator, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		migrator: migrator,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the configuration, overlays secrets, migrates it if needed
// (persisting the migrated record) and validates it. Validation problems are
// reported in the result, not as an error.
func (m *Manager) Load(ctx context.Context) (*LoadResult, error) {
	if err := m.store.RefreshSecrets(ctx); err != nil {
		return nil, cierrors.StoreError("failed to refresh secrets", err)
	}

	data, err := m.store.Get(ctx, GlobalStateKey)
	if err != nil {
		return nil, cierrors.StoreError("failed to read configuration", err)
	}

	var cfg *CodeIndexConfig
	if data == nil {
		cfg = NewConfig()
	} else {
		cfg = &CodeIndexConfig{}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, cierrors.ConfigError("stored configuration is not valid JSON", err).
				WithDetail("key", GlobalStateKey)
		}
	}

	migrated, backup := false, ""
	if m.migrator != nil && m.migrator.NeedsMigration(cfg) {
		next, err := m.migrate(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := m.store.UpdateGlobalState(ctx, GlobalStateKey, next.withoutSecrets()); err != nil {
			return nil, cierrors.StoreError("failed to persist migrated configuration", err)
		}
		cfg = next
		migrated = true
		backup = m.migrator.LastBackup()
	}

	if err := m.overlaySecrets(ctx, cfg); err != nil {
		return nil, err
	}
	if m.env {
		cfg.ApplyEnvOverrides()
	}

	res := ValidateConfig(cfg, m.opts)
	m.logger.Debug("config_loaded",
		slog.String("provider", string(cfg.EmbedderProvider)),
		slog.String("schema_version", cfg.SchemaVersion()),
		slog.Bool("migrated", migrated),
		slog.Bool("valid", res.Valid),
		slog.Int("errors", len(res.Errors)),
		slog.Int("warnings", len(res.Warnings)))

	return &LoadResult{Config: cfg, Validation: res, Migrated: migrated, BackupPath: backup}, nil
}

// Save validates cfg and persists it without secrets. An invalid cfg is not
// persisted; the returned error carries the validation errors.
func (m *Manager) Save(ctx context.Context, cfg *CodeIndexConfig) (Result, error) {
	res := ValidateConfig(cfg, m.opts)
	if !res.Valid {
		err := cierrors.ConfigError("configuration is invalid", res.Err()).
			WithDetail("errors", fmt.Sprintf("%d", len(res.Errors)))
		return res, err
	}

	if err := m.store.UpdateGlobalState(ctx, GlobalStateKey, cfg.withoutSecrets()); err != nil {
		return res, cierrors.StoreError("failed to persist configuration", err)
	}
	m.logger.Info("config_saved", slog.String("provider", string(cfg.EmbedderProvider)))
	return res, nil
}

func (m *Manager) migrate(ctx context.Context, cfg *CodeIndexConfig) (*CodeIndexConfig, error) {
	if m.lock != nil {
		return MigrateLocked(ctx, m.lock, m.migrator, cfg)
	}
	return m.migrator.Migrate(ctx, cfg)
}

// overlaySecrets fills credential fields from the secret store. Empty
// secrets leave the field untouched.
func (m *Manager) overlaySecrets(ctx context.Context, cfg *CodeIndexConfig) error {
	for _, key := range SecretKeys {
		v, err := m.store.GetSecret(ctx, key)
		if err != nil {
			return cierrors.StoreError("failed to read secret", err).WithDetail("key", key)
		}
		if v != "" {
			cfg.setSecret(key, v)
		}
	}
	return nil
}

func (c *CodeIndexConfig) setSecret(key, v string) {
	switch key {
	case SecretOpenAIKey:
		if c.OpenAIOptions == nil {
			c.OpenAIOptions = &OpenAIOptions{}
		}
		c.OpenAIOptions.OpenAINativeAPIKey = v
	case SecretQdrantAPIKey:
		c.QdrantAPIKey = Ptr(v)
	case SecretOpenAICompatibleKey:
		if c.OpenAICompatibleOptions == nil {
			c.OpenAICompatibleOptions = &OpenAICompatibleOptions{}
		}
		c.OpenAICompatibleOptions.APIKey = v
	case SecretGeminiKey:
		c.GeminiOptions = withKey(c.GeminiOptions, v)
	case SecretMistralKey:
		c.MistralOptions = withKey(c.MistralOptions, v)
	case SecretVercelAIGatewayKey:
		c.VercelAIGatewayOptions = withKey(c.VercelAIGatewayOptions, v)
	case SecretOpenRouterKey:
		if c.OpenRouterOptions == nil {
			c.OpenRouterOptions = &OpenRouterOptions{}
		}
		c.OpenRouterOptions.APIKey = v
	case SecretGraphPassword:
		c.GraphPassword = Ptr(v)
	}
}

func withKey(o *APIKeyOptions, v string) *APIKeyOptions {
	if o == nil {
		o = &APIKeyOptions{}
	}
	o.APIKey = v
	return o
}

// withoutSecrets returns a copy with every secret field cleared.
func (c *CodeIndexConfig) withoutSecrets() *CodeIndexConfig {
	out := c.Clone()
	if out.OpenAIOptions != nil {
		out.OpenAIOptions.OpenAINativeAPIKey = ""
	}
	if out.OpenAICompatibleOptions != nil {
		out.OpenAICompatibleOptions.APIKey = ""
	}
	for _, o := range []*APIKeyOptions{out.GeminiOptions, out.MistralOptions, out.VercelAIGatewayOptions} {
		if o != nil {
			o.APIKey = ""
		}
	}
	if out.OpenRouterOptions != nil {
		out.OpenRouterOptions.APIKey = ""
	}
	out.QdrantAPIKey = nil
	out.GraphPassword = nil
	return out
}
