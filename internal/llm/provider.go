package llm

import "context"

// Mapper proposes category mappings for legacy names that the cache and the
// fuzzy matcher could not resolve.
//
// The contract is strictly best-effort: implementations never panic and never
// abort the pipeline. Any network error, non-2xx response, or JSON-parse
// failure yields an empty map together with a descriptive error that the
// caller records as telemetry only; it must not be treated as fatal.
type Mapper interface {
	// ProviderName identifies the adapter, e.g. "openrouter". It is used to
	// build the cache provider tag "llm-<name>".
	ProviderName() string
	// SuggestMappings sends only category names, never row-level data.
	SuggestMappings(ctx context.Context, unmapped, knownCategories []string) (map[string]Suggestion, error)
}

// Suggestion is the model's proposed target for one source name.
type Suggestion struct {
	TargetName string  `json:"target_name"`
	Confidence float64 `json:"confidence"`
}

// mappingRequest is the user-message payload sent to the model.
type mappingRequest struct {
	KnownCategories    []string `json:"known_categories"`
	UnmappedCategories []string `json:"unmapped_categories"`
}

// mappingResponse is the strict JSON shape the model is instructed to return.
type mappingResponse struct {
	Mappings map[string]Suggestion `json:"mappings"`
}

// ClampConfidence bounds a confidence score into [0,100].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
