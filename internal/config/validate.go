package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a stable machine-readable issue code.
type Code string

const (
	CodeRequiredField            Code = "REQUIRED_FIELD"
	CodeOutOfBounds              Code = "OUT_OF_BOUNDS"
	CodeInvalidProtocol          Code = "INVALID_PROTOCOL"
	CodeInvalidLength            Code = "INVALID_LENGTH"
	CodeInvalidURL               Code = "INVALID_URL"
	CodeInvalidType              Code = "INVALID_TYPE"
	CodeInvalidProvider          Code = "INVALID_PROVIDER"
	CodeTestSecretDetected       Code = "TEST_SECRET_DETECTED"
	CodeSuspiciousSecretPattern  Code = "SUSPICIOUS_SECRET_PATTERN"
	CodeProductionRecommendation Code = "PRODUCTION_RECOMMENDATION"
	CodeProductionSafety         Code = "PRODUCTION_SAFETY"
)

// Issue is one validation error or warning.
type Issue struct {
	Field      string   `json:"field"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
	Code       Code     `json:"code"`
}

// ClampedValue records a value that was clamped into its hard bounds.
type ClampedValue struct {
	Field    string  `json:"field"`
	Original float64 `json:"original"`
	Clamped  float64 `json:"clamped"`
}

// Metadata describes how a validation run was performed.
type Metadata struct {
	ValidatedAt   time.Time         `json:"validatedAt"`
	Provider      EmbedderProvider  `json:"provider,omitempty"`
	Production    bool              `json:"production"`
	ClampPolicy   bool              `json:"clampPolicy"`
	Clamped       []ClampedValue    `json:"clamped,omitempty"`
	SkippedChecks []ProductionCheck `json:"skippedChecks,omitempty"`
}

// Result is the outcome of ValidateConfig. Valid is true iff Errors is empty.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []Issue  `json:"errors"`
	Warnings []Issue  `json:"warnings"`
	Metadata Metadata `json:"metadata"`
}

// HasCode reports whether any error or warning carries code for field.
// An empty field matches any field.
func (r Result) HasCode(code Code, field string) bool {
	for _, list := range [][]Issue{r.Errors, r.Warnings} {
		for _, is := range list {
			if is.Code == code && (field == "" || is.Field == field) {
				return true
			}
		}
	}
	return false
}

// Err returns nil when the result is valid, or an error listing every
// validation error.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, is := range r.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", is.Field, is.Message))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Options controls a validation run.
type Options struct {
	// Production enables the production-safety sweep.
	Production bool
	// Clamp accepts out-of-bounds numbers by clamping them, with a warning,
	// instead of rejecting them.
	Clamp bool
	// SkipChecks silences individual production-safety checks.
	SkipChecks []ProductionCheck
	// Now stamps Metadata.ValidatedAt. Defaults to time.Now.
	Now func() time.Time
}

// validator accumulates issues for a single run.
type validator struct {
	opts   Options
	result Result
}

func (v *validator) add(is Issue) {
	if is.Severity == SeverityError {
		v.result.Errors = append(v.result.Errors, is)
	} else {
		v.result.Warnings = append(v.result.Warnings, is)
	}
}

func (v *validator) addAll(issues []Issue) {
	for _, is := range issues {
		v.add(is)
	}
}

func (v *validator) numeric(value *float64, field string, b Bounds) {
	check := ValidateNumericBounds(value, field, b, v.opts.Clamp)
	if check.Issue != nil {
		v.add(*check.Issue)
	}
	if check.Clamped {
		v.result.Metadata.Clamped = append(v.result.Metadata.Clamped, ClampedValue{
			Field:    field,
			Original: *value,
			Clamped:  *check.Value,
		})
	}
}

func (v *validator) integer(value *int, field string, b Bounds) {
	v.numeric(intValue(value), field, b)
}

func (v *validator) apiKey(key, field string) {
	v.addAll(ValidateAPIKey(key, field))
}

func (v *validator) requiredURL(raw, field string, allowed []string) {
	if strings.TrimSpace(raw) == "" {
		v.add(requiredIssue(field))
		return
	}
	if is := ValidateURL(raw, field, allowed); is != nil {
		v.add(*is)
	}
}

// ValidateConfig checks cfg for type, bounds and format problems. It never
// mutates cfg. A nil cfg yields a single required-field error.
func ValidateConfig(cfg *CodeIndexConfig, opts Options) Result {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	v := &validator{
		opts: opts,
		result: Result{
			Errors:   []Issue{},
			Warnings: []Issue{},
			Metadata: Metadata{
				ValidatedAt:   now(),
				Production:    opts.Production,
				ClampPolicy:   opts.Clamp,
				SkippedChecks: opts.SkipChecks,
			},
		},
	}

	if cfg == nil {
		v.add(requiredIssue("config"))
		return v.finish()
	}
	v.result.Metadata.Provider = cfg.EmbedderProvider

	v.validateEmbedder(cfg)
	v.integer(cfg.ModelDimension, "modelDimension", boundsModelDimension)
	v.validateVectorStore(cfg)
	v.validateGraph(cfg)
	v.validateSearch(cfg)
	v.validateBatching(cfg)

	if opts.Production {
		v.addAll(CheckProductionSafety(cfg, opts.SkipChecks...))
	}
	return v.finish()
}

func (v *validator) finish() Result {
	v.result.Valid = len(v.result.Errors) == 0
	return v.result
}

func (v *validator) validateEmbedder(cfg *CodeIndexConfig) {
	if cfg.EmbedderProvider == "" {
		v.add(requiredIssue("embedderProvider"))
		return
	}
	sel, err := cfg.Embedder()
	if err != nil {
		names := make([]string, len(Providers))
		for i, p := range Providers {
			names[i] = string(p)
		}
		v.add(Issue{
			Field:      "embedderProvider",
			Message:    err.Error(),
			Severity:   SeverityError,
			Suggestion: fmt.Sprintf("Use one of: %s", strings.Join(names, ", ")),
			Code:       CodeInvalidProvider,
		})
		return
	}
	sel.validate(v)
}

func (v *validator) validateVectorStore(cfg *CodeIndexConfig) {
	if cfg.QdrantURL != nil && *cfg.QdrantURL != "" {
		if is := ValidateURL(*cfg.QdrantURL, "qdrantUrl", httpProtocols); is != nil {
			v.add(*is)
		}
	}
}

func (v *validator) validateGraph(cfg *CodeIndexConfig) {
	if !cfg.GraphEnabled {
		return
	}

	if cfg.GraphURL == nil || strings.TrimSpace(*cfg.GraphURL) == "" {
		v.add(requiredIssue("graphUrl"))
	} else if is := ValidateURL(*cfg.GraphURL, "graphUrl", graphProtocols); is != nil {
		v.add(*is)
	}

	if cfg.GraphPassword != nil {
		if is := ValidateStringLength(*cfg.GraphPassword, "graphPassword", minGraphPasswordLength, maxGraphPasswordLength); is != nil {
			v.add(*is)
		}
	}

	v.integer(cfg.GraphMaxConnectionPoolSize, "graphMaxConnectionPoolSize", boundsPoolSize)
	v.integer(cfg.GraphConnectionAcquisitionTimeout, "graphConnectionAcquisitionTimeout", boundsTimeoutMs)
	v.integer(cfg.GraphQueryTimeout, "graphQueryTimeout", boundsTimeoutMs)
	v.integer(cfg.GraphCircuitBreakerTimeout, "graphCircuitBreakerTimeout", boundsTimeoutMs)
	v.integer(cfg.GraphMaxRetries, "graphMaxRetries", boundsMaxRetries)
	v.integer(cfg.GraphCircuitBreakerThreshold, "graphCircuitBreakerThreshold", boundsCircuitBreaker)
}

func (v *validator) validateSearch(cfg *CodeIndexConfig) {
	v.numeric(cfg.SearchMinScore, "searchMinScore", boundsMinScore)
	v.integer(cfg.SearchMaxResults, "searchMaxResults", boundsMaxResults)
}

func (v *validator) validateBatching(cfg *CodeIndexConfig) {
	v.integer(cfg.BatchSize, "batchSize", boundsBatchSize)
	v.integer(cfg.BatchTimeout, "batchTimeout", boundsBatchTimeoutMs)
	v.integer(cfg.EmbeddingCacheSize, "embeddingCacheSize", cacheBounds("embeddingCacheSize"))
	v.integer(cfg.LSPCacheSize, "lspCacheSize", cacheBounds("lspCacheSize"))
	v.integer(cfg.BatchConcurrencyLimit, "batchConcurrencyLimit", boundsConcurrency)
}

// cacheBounds picks the cache bound by field name; LSP caches hold more entries.
func cacheBounds(field string) Bounds {
	if strings.Contains(strings.ToLower(field), "lsp") {
		return boundsLSPCacheSize
	}
	return boundsCacheSize
}
