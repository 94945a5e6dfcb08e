package config

import "fmt"

// EmbedderSelection is the provider-specific part of a configuration.
// There is one implementation per EmbedderProvider; the unexported method
// keeps the set closed to this package.
type EmbedderSelection interface {
	Provider() EmbedderProvider
	validate(v *validator)
}

type (
	OpenAIEmbedder struct {
		APIKey string
	}
	OllamaEmbedder struct {
		BaseURL string
	}
	OpenAICompatibleEmbedder struct {
		BaseURL string
		APIKey  string
	}
	GeminiEmbedder struct {
		APIKey string
	}
	MistralEmbedder struct {
		APIKey string
	}
	VercelAIGatewayEmbedder struct {
		APIKey string
	}
	OpenRouterEmbedder struct {
		APIKey           string
		SpecificProvider string
	}
)

func (OpenAIEmbedder) Provider() EmbedderProvider           { return ProviderOpenAI }
func (OllamaEmbedder) Provider() EmbedderProvider           { return ProviderOllama }
func (OpenAICompatibleEmbedder) Provider() EmbedderProvider { return ProviderOpenAICompatible }
func (GeminiEmbedder) Provider() EmbedderProvider           { return ProviderGemini }
func (MistralEmbedder) Provider() EmbedderProvider          { return ProviderMistral }
func (VercelAIGatewayEmbedder) Provider() EmbedderProvider  { return ProviderVercelAIGateway }
func (OpenRouterEmbedder) Provider() EmbedderProvider       { return ProviderOpenRouter }

// Field paths of the provider credentials, as persisted.
const (
	FieldOpenAIKey           = "openAiOptions.openAiNativeApiKey"
	FieldOllamaBaseURL       = "ollamaOptions.ollamaBaseUrl"
	FieldOpenAICompatibleURL = "openAiCompatibleOptions.baseUrl"
	FieldOpenAICompatibleKey = "openAiCompatibleOptions.apiKey"
	FieldGeminiKey           = "geminiOptions.apiKey"
	FieldMistralKey          = "mistralOptions.apiKey"
	FieldVercelAIGatewayKey  = "vercelAiGatewayOptions.apiKey"
	FieldOpenRouterKey       = "openRouterOptions.apiKey"
)

func (e OpenAIEmbedder) validate(v *validator) { v.apiKey(e.APIKey, FieldOpenAIKey) }

func (e OllamaEmbedder) validate(v *validator) {
	v.requiredURL(e.BaseURL, FieldOllamaBaseURL, httpProtocols)
}

func (e OpenAICompatibleEmbedder) validate(v *validator) {
	v.requiredURL(e.BaseURL, FieldOpenAICompatibleURL, httpProtocols)
	v.apiKey(e.APIKey, FieldOpenAICompatibleKey)
}

func (e GeminiEmbedder) validate(v *validator)          { v.apiKey(e.APIKey, FieldGeminiKey) }
func (e MistralEmbedder) validate(v *validator)         { v.apiKey(e.APIKey, FieldMistralKey) }
func (e VercelAIGatewayEmbedder) validate(v *validator) { v.apiKey(e.APIKey, FieldVercelAIGatewayKey) }
func (e OpenRouterEmbedder) validate(v *validator)      { v.apiKey(e.APIKey, FieldOpenRouterKey) }

// UnknownProviderError is returned by Embedder for an unrecognized provider.
type UnknownProviderError struct {
	Provider EmbedderProvider
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown embedder provider %q", string(e.Provider))
}

// Embedder resolves the configured provider and its options into a selection.
func (c *CodeIndexConfig) Embedder() (EmbedderSelection, error) {
	switch c.EmbedderProvider {
	case ProviderOpenAI:
		var key string
		if c.OpenAIOptions != nil {
			key = c.OpenAIOptions.OpenAINativeAPIKey
		}
		return OpenAIEmbedder{APIKey: key}, nil
	case ProviderOllama:
		var base string
		if c.OllamaOptions != nil {
			base = c.OllamaOptions.OllamaBaseURL
		}
		return OllamaEmbedder{BaseURL: base}, nil
	case ProviderOpenAICompatible:
		var e OpenAICompatibleEmbedder
		if c.OpenAICompatibleOptions != nil {
			e.BaseURL = c.OpenAICompatibleOptions.BaseURL
			e.APIKey = c.OpenAICompatibleOptions.APIKey
		}
		return e, nil
	case ProviderGemini:
		return GeminiEmbedder{APIKey: keyOf(c.GeminiOptions)}, nil
	case ProviderMistral:
		return MistralEmbedder{APIKey: keyOf(c.MistralOptions)}, nil
	case ProviderVercelAIGateway:
		return VercelAIGatewayEmbedder{APIKey: keyOf(c.VercelAIGatewayOptions)}, nil
	case ProviderOpenRouter:
		var e OpenRouterEmbedder
		if c.OpenRouterOptions != nil {
			e.APIKey = c.OpenRouterOptions.APIKey
			e.SpecificProvider = c.OpenRouterOptions.SpecificProvider
		}
		return e, nil
	default:
		return nil, &UnknownProviderError{Provider: c.EmbedderProvider}
	}
}

func keyOf(o *APIKeyOptions) string {
	if o == nil {
		return ""
	}
	return o.APIKey
}

// apiKeyFields returns every provider credential currently set, keyed by field path.
func (c *CodeIndexConfig) apiKeyFields() []keyField {
	var out []keyField
	add := func(field, key string) {
		if key != "" {
			out = append(out, keyField{field: field, key: key})
		}
	}
	if c.OpenAIOptions != nil {
		add(FieldOpenAIKey, c.OpenAIOptions.OpenAINativeAPIKey)
	}
	if c.OpenAICompatibleOptions != nil {
		add(FieldOpenAICompatibleKey, c.OpenAICompatibleOptions.APIKey)
	}
	add(FieldGeminiKey, keyOf(c.GeminiOptions))
	add(FieldMistralKey, keyOf(c.MistralOptions))
	add(FieldVercelAIGatewayKey, keyOf(c.VercelAIGatewayOptions))
	if c.OpenRouterOptions != nil {
		add(FieldOpenRouterKey, c.OpenRouterOptions.APIKey)
	}
	return out
}

type keyField struct {
	field string
	key   string
}
