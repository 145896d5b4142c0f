package ai

// DefaultModel is used when the request does not name a model or names one
// outside the allow-list.
const DefaultModel = "gpt-4o-mini"

var allowedModels = map[string]bool{
	"gpt-4o-mini":   true,
	"gpt-4o":        true,
	"gpt-4.1-mini":  true,
	"gpt-3.5-turbo": true,
	"o3-mini":       true,
}

// ResolveModel maps a requested model name to an allowed one.
func ResolveModel(name string) string {
	if allowedModels[name] {
		return name
	}
	return DefaultModel
}
