package tools

// Argument accessors for the map[string]any the model sends. JSON
// numbers decode as float64, so integer parameters need coercion.

// StringArg returns args[key] as a string, or fallback when absent.
func StringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// IntArg returns args[key] as an int, accepting float64 and int encodings.
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// BoolArg returns args[key] as a bool, or fallback when absent.
func BoolArg(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}
