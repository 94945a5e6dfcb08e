package state

import "strings"

type categoryRule struct {
	category   ErrorCategory
	keywords   []string
	suggestion string
}

// Order matters: a message like "connect: 401" is a connection problem first.
var categoryRules = []categoryRule{
	{
		category:   CategoryConnection,
		keywords:   []string{"econnrefused", "timeout", "network", "unreachable", "connect"},
		suggestion: "Check that the service is running and reachable from this machine, then retry.",
	},
	{
		category:   CategoryAuthentication,
		keywords:   []string{"401", "403", "unauthorized", "api key"},
		suggestion: "Verify the credentials or API key in the code index settings.",
	},
	{
		category:   CategoryRateLimit,
		keywords:   []string{"429", "quota", "rate limit"},
		suggestion: "The provider is rate limiting requests. Wait a moment or lower the batch size, then retry.",
	},
	{
		category:   CategoryConfiguration,
		keywords:   []string{"invalid url", "missing", "configuration"},
		suggestion: "Review the code index configuration for missing or malformed values.",
	},
}

const unknownSuggestion = "Check the logs for details and retry. If the problem persists, restart indexing."

// Categorization is the outcome of CategorizeError.
type Categorization struct {
	Category        ErrorCategory `json:"category"`
	RetrySuggestion string        `json:"retrySuggestion"`
}

// CategorizeError classifies an error message by keyword. The first matching
// rule wins. A nil error is categorized as unknown.
func CategorizeError(err error) Categorization {
	if err == nil {
		return Categorization{Category: CategoryUnknown, RetrySuggestion: unknownSuggestion}
	}
	return categorizeMessage(err.Error())
}

// categorizeMessage is CategorizeError over raw message text.
func categorizeMessage(msg string) Categorization {
	lower := strings.ToLower(msg)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Categorization{Category: rule.category, RetrySuggestion: rule.suggestion}
			}
		}
	}
	return Categorization{Category: CategoryUnknown, RetrySuggestion: unknownSuggestion}
}
