package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
)

// Range is a closed numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in r. Both ends are inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Bounds is a hard interval with an optional production-recommended sub-range.
type Bounds struct {
	Range
	Recommended *Range
}

// Hard and recommended bounds for every numeric field.
const (
	MaxBatchSize = 10000

	minAPIKeyLength        = 10
	maxAPIKeyLength        = 500
	minGraphPasswordLength = 8
	maxGraphPasswordLength = 256

	productionMaxTimeoutMs = 5 * 60 * 1000
)

var (
	boundsModelDimension = Bounds{Range: Range{1, 8192}}
	boundsPoolSize       = Bounds{Range: Range{1, 500}, Recommended: &Range{10, 500}}
	boundsTimeoutMs      = Bounds{Range: Range{1000, 600000}}
	boundsMaxRetries     = Bounds{Range: Range{0, 10}}
	boundsCircuitBreaker = Bounds{Range: Range{0, 100}}
	boundsMinScore       = Bounds{Range: Range{0, 1}}
	boundsMaxResults     = Bounds{Range: Range{1, 1000}}
	boundsBatchSize      = Bounds{Range: Range{1, MaxBatchSize}, Recommended: &productionBatchSize}
	boundsBatchTimeoutMs = Bounds{Range: Range{100, 300000}}
	boundsCacheSize      = Bounds{Range: Range{0, 10000}}
	boundsLSPCacheSize   = Bounds{Range: Range{0, 100000}}
	boundsConcurrency    = Bounds{Range: Range{1, 20}}

	productionBatchSize = Range{10, 500}
)

var (
	graphProtocols = []string{"bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc"}
	httpProtocols  = []string{"http", "https"}
)

// testSecretPatterns are matched case-insensitively as substrings.
var testSecretPatterns = []string{
	"test",
	"example",
	"sample",
	"demo",
	"dummy",
	"fake",
	"placeholder",
	"changeme",
	"your-api-key",
	"your_api_key",
	"xxxxxxxx",
}

var suspiciousSecretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`(?i)^(sk-)?[x*]+$`),
	regexp.MustCompile(`(?i)(123456|abcdef|qwerty|password|secret)`),
	regexp.MustCompile(`\s`),
}

// NumericCheck is the outcome of ValidateNumericBounds.
type NumericCheck struct {
	// Valid is false only for hard violations.
	Valid bool
	// Value is the effective value after clamping; nil if the input was nil.
	Value *float64
	// Clamped is true when Value differs from the input.
	Clamped bool
	// Issue is the single error or warning produced, if any.
	Issue *Issue
}

// ValidateNumericBounds checks value against b.
//
// A nil value is always valid. Non-finite values are a hard violation.
// Values outside the hard range are rejected, or clamped and accepted with a
// warning when clamp is set. Values inside the hard range but outside the
// recommended sub-range are accepted with a warning.
func ValidateNumericBounds(value *float64, field string, b Bounds, clamp bool) NumericCheck {
	if value == nil {
		return NumericCheck{Valid: true}
	}
	v := *value

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NumericCheck{
			Valid: false,
			Value: value,
			Issue: &Issue{
				Field:      field,
				Message:    fmt.Sprintf("%s must be a finite number", field),
				Severity:   SeverityError,
				Suggestion: fmt.Sprintf("Set %s to a number between %s and %s", field, fmtNum(b.Min), fmtNum(b.Max)),
				Code:       CodeInvalidType,
			},
		}
	}

	if !b.Contains(v) {
		if clamp {
			clamped := math.Min(math.Max(v, b.Min), b.Max)
			return NumericCheck{
				Valid:   true,
				Value:   &clamped,
				Clamped: true,
				Issue: &Issue{
					Field:      field,
					Message:    fmt.Sprintf("%s value %s is outside [%s, %s] and was clamped to %s", field, fmtNum(v), fmtNum(b.Min), fmtNum(b.Max), fmtNum(clamped)),
					Severity:   SeverityWarning,
					Suggestion: fmt.Sprintf("Set %s explicitly to a value between %s and %s", field, fmtNum(b.Min), fmtNum(b.Max)),
					Code:       CodeOutOfBounds,
				},
			}
		}
		return NumericCheck{
			Valid: false,
			Value: value,
			Issue: &Issue{
				Field:      field,
				Message:    fmt.Sprintf("%s value %s is outside [%s, %s]", field, fmtNum(v), fmtNum(b.Min), fmtNum(b.Max)),
				Severity:   SeverityError,
				Suggestion: fmt.Sprintf("Set %s to a value between %s and %s", field, fmtNum(b.Min), fmtNum(b.Max)),
				Code:       CodeOutOfBounds,
			},
		}
	}

	if b.Recommended != nil && !IsWithinRecommendedBounds(v, *b.Recommended) {
		return NumericCheck{
			Valid: true,
			Value: value,
			Issue: &Issue{
				Field:      field,
				Message:    fmt.Sprintf("%s value %s is outside the recommended production range [%s, %s]", field, fmtNum(v), fmtNum(b.Recommended.Min), fmtNum(b.Recommended.Max)),
				Severity:   SeverityWarning,
				Suggestion: fmt.Sprintf("Consider a value between %s and %s for production", fmtNum(b.Recommended.Min), fmtNum(b.Recommended.Max)),
				Code:       CodeProductionRecommendation,
			},
		}
	}

	return NumericCheck{Valid: true, Value: value}
}

// IsWithinRecommendedBounds reports whether v lies in r, ends inclusive.
func IsWithinRecommendedBounds(v float64, r Range) bool {
	return r.Contains(v)
}

// ValidateStringLength checks that len(value) lies in [min, max].
func ValidateStringLength(value, field string, min, max int) *Issue {
	n := len(value)
	if n >= min && n <= max {
		return nil
	}
	return &Issue{
		Field:      field,
		Message:    fmt.Sprintf("%s must be between %d and %d characters (got %d)", field, min, max, n),
		Severity:   SeverityError,
		Suggestion: fmt.Sprintf("Provide a %s of %d to %d characters", field, min, max),
		Code:       CodeInvalidLength,
	}
}

// ValidateURL checks that raw parses as an absolute URL whose scheme is in allowed.
func ValidateURL(raw, field string, allowed []string) *Issue {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &Issue{
			Field:      field,
			Message:    fmt.Sprintf("%s is not a valid URL: %q", field, raw),
			Severity:   SeverityError,
			Suggestion: fmt.Sprintf("Use a URL such as %s://host:port", allowed[0]),
			Code:       CodeInvalidURL,
		}
	}

	scheme := strings.ToLower(u.Scheme)
	for _, p := range allowed {
		if scheme == p {
			return nil
		}
	}
	return &Issue{
		Field:      field,
		Message:    fmt.Sprintf("%s uses unsupported protocol %q", field, scheme),
		Severity:   SeverityError,
		Suggestion: fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		Code:       CodeInvalidProtocol,
	}
}

// ValidateAPIKey checks key length (error), then known test-secret patterns
// and suspicious shapes (warnings). An empty key is a required-field error.
func ValidateAPIKey(key, field string) []Issue {
	if key == "" {
		return []Issue{requiredIssue(field)}
	}
	if issue := ValidateStringLength(key, field, minAPIKeyLength, maxAPIKeyLength); issue != nil {
		return []Issue{*issue}
	}

	var issues []Issue
	if pattern, ok := matchTestSecret(key); ok {
		issues = append(issues, Issue{
			Field:      field,
			Message:    fmt.Sprintf("%s looks like a test or example secret (contains %q)", field, pattern),
			Severity:   SeverityWarning,
			Suggestion: "Replace it with a real key before using this configuration outside local development",
			Code:       CodeTestSecretDetected,
		})
	}
	if isSuspiciousSecret(key) {
		issues = append(issues, Issue{
			Field:      field,
			Message:    fmt.Sprintf("%s has an unusual format for an API key", field),
			Severity:   SeverityWarning,
			Suggestion: "Double-check that the full key was pasted",
			Code:       CodeSuspiciousSecretPattern,
		})
	}
	return issues
}

func matchTestSecret(key string) (string, bool) {
	lower := strings.ToLower(key)
	for _, p := range testSecretPatterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

func isSuspiciousSecret(key string) bool {
	if repeatedChar(key) {
		return true
	}
	for _, re := range suspiciousSecretPatterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func repeatedChar(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 1
}

func requiredIssue(field string) Issue {
	return Issue{
		Field:      field,
		Message:    fmt.Sprintf("%s is required", field),
		Severity:   SeverityError,
		Suggestion: fmt.Sprintf("Set %s in the code index settings", field),
		Code:       CodeRequiredField,
	}
}

func fmtNum(v float64) string {
	return fmt.Sprintf("%g", v)
}

func intValue(p *int) *float64 {
	if p == nil {
		return nil
	}
	f := float64(*p)
	return &f
}
