package config

import "fmt"

// ProductionCheck names one production-safety advisory.
type ProductionCheck string

const (
	CheckCircuitBreaker ProductionCheck = "circuit-breaker"
	CheckTestSecrets    ProductionCheck = "test-secrets"
	CheckBatchSize      ProductionCheck = "batch-size"
	CheckPoolSize       ProductionCheck = "pool-size"
	CheckTimeouts       ProductionCheck = "timeouts"
	CheckRetries        ProductionCheck = "retries"
)

// ProductionChecks lists every check in the order they run.
var ProductionChecks = []ProductionCheck{
	CheckCircuitBreaker,
	CheckTestSecrets,
	CheckBatchSize,
	CheckPoolSize,
	CheckTimeouts,
	CheckRetries,
}

// CheckProductionSafety scans cfg for operationally risky settings and
// returns warnings only. Checks named in skip are not run.
func CheckProductionSafety(cfg *CodeIndexConfig, skip ...ProductionCheck) []Issue {
	if cfg == nil {
		return nil
	}
	skipped := make(map[ProductionCheck]bool, len(skip))
	for _, c := range skip {
		skipped[c] = true
	}

	var out []Issue
	warn := func(field, msg, suggestion string) {
		out = append(out, Issue{
			Field:      field,
			Message:    msg,
			Severity:   SeverityWarning,
			Suggestion: suggestion,
			Code:       CodeProductionSafety,
		})
	}

	if !skipped[CheckCircuitBreaker] && cfg.GraphEnabled &&
		(cfg.GraphCircuitBreakerThreshold == nil || *cfg.GraphCircuitBreakerThreshold == 0) {
		warn("graphCircuitBreakerThreshold",
			"circuit breaker is disabled for the graph backend",
			fmt.Sprintf("Set graphCircuitBreakerThreshold (e.g. %d) so a failing graph store is not retried forever", DefaultGraphCircuitBreakerThreshold))
	}

	if !skipped[CheckTestSecrets] {
		for _, kf := range cfg.apiKeyFields() {
			if pattern, ok := matchTestSecret(kf.key); ok {
				warn(kf.field,
					fmt.Sprintf("%s contains the test-secret pattern %q", kf.field, pattern),
					"Use a production key")
			}
		}
	}

	if !skipped[CheckBatchSize] && cfg.BatchSize != nil &&
		!IsWithinRecommendedBounds(float64(*cfg.BatchSize), productionBatchSize) {
		warn("batchSize",
			fmt.Sprintf("batchSize %d is outside the production range [%g, %g]", *cfg.BatchSize, productionBatchSize.Min, productionBatchSize.Max),
			"Use a batch size between 10 and 500")
	}

	if !skipped[CheckPoolSize] && cfg.GraphEnabled && cfg.GraphMaxConnectionPoolSize != nil &&
		float64(*cfg.GraphMaxConnectionPoolSize) < boundsPoolSize.Recommended.Min {
		warn("graphMaxConnectionPoolSize",
			fmt.Sprintf("graphMaxConnectionPoolSize %d is below the production floor of %g", *cfg.GraphMaxConnectionPoolSize, boundsPoolSize.Recommended.Min),
			fmt.Sprintf("Use at least %g connections", boundsPoolSize.Recommended.Min))
	}

	if !skipped[CheckTimeouts] {
		timeouts := []struct {
			field string
			value *int
		}{
			{"graphConnectionAcquisitionTimeout", cfg.GraphConnectionAcquisitionTimeout},
			{"graphQueryTimeout", cfg.GraphQueryTimeout},
			{"graphCircuitBreakerTimeout", cfg.GraphCircuitBreakerTimeout},
			{"batchTimeout", cfg.BatchTimeout},
		}
		for _, t := range timeouts {
			if t.value != nil && *t.value > productionMaxTimeoutMs {
				warn(t.field,
					fmt.Sprintf("%s of %dms exceeds 5 minutes", t.field, *t.value),
					"Long timeouts hide stuck requests; keep them under 5 minutes")
			}
		}
	}

	if !skipped[CheckRetries] && cfg.GraphMaxRetries != nil && *cfg.GraphMaxRetries == 0 {
		warn("graphMaxRetries",
			"graphMaxRetries is 0; transient graph failures will not be retried",
			"Allow at least one retry")
	}

	return out
}

// ParseProductionChecks converts names such as "timeouts,retries" into checks.
// Unknown names are returned separately.
func ParseProductionChecks(names []string) (checks []ProductionCheck, unknown []string) {
	known := make(map[string]ProductionCheck, len(ProductionChecks))
	for _, c := range ProductionChecks {
		known[string(c)] = c
	}
	for _, n := range names {
		if c, ok := known[n]; ok {
			checks = append(checks, c)
		} else if n != "" {
			unknown = append(unknown, n)
		}
	}
	return checks, unknown
}
