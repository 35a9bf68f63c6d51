package agent

import "strings"

// Envelope is a raw agent platform response decoded as loose JSON. The
// upstream shape varies by underlying model, wrapping convention, and
// serialization layer, so every field access must tolerate absence or a
// mismatched type.
type Envelope map[string]any

// Success reports the operation-success flag. A missing or non-boolean
// flag counts as failure.
func (e Envelope) Success() bool {
	v, _ := e["success"].(bool)
	return v
}

// Error returns the top-level collaborator error message, if any.
func (e Envelope) Error() string {
	s, _ := e["error"].(string)
	return strings.TrimSpace(s)
}

// Message returns response.message, if present as a string.
func (e Envelope) Message() string {
	return stringAt(mapAt(e, "response"), "message")
}

func mapAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func stringAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func sliceAt(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

// firstEntry returns element 0 of a sequence when it is a mapping.
func firstEntry(s []any) map[string]any {
	if len(s) == 0 {
		return nil
	}
	v, _ := s[0].(map[string]any)
	return v
}
