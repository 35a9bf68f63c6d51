package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TransformationDetails is the human-readable metadata attached to a
// completed transformation. The record is either absent entirely or
// carries all three fields, each possibly empty.
type TransformationDetails struct {
	TransformationDescription string `json:"transformation_description"`
	StyleElementsApplied      string `json:"style_elements_applied"`
	ColorPaletteUsed          string `json:"color_palette_used"`
}

// urlStrategy is one candidate location for the result image. Strategies
// are consulted strictly in order and the first hit wins: two different
// envelope shapes can each satisfy a later strategy with a different
// (wrong) value, so the order is itself part of the contract.
type urlStrategy struct {
	name string
	pick func(Envelope) (string, bool)
}

var imageURLStrategies = []urlStrategy{
	{"module_outputs.artifact_files", fromModuleOutputArtifacts},
	{"module_outputs.fields", fromModuleOutputFields},
	{"response.result", fromResponseResult},
	{"response.message", fromResponseMessage},
	{"raw_response", fromRawResponse},
}

var (
	messageURLPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+\.(?:png|jpg|jpeg|webp|gif|svg|bmp)`)
	rawURLPattern     = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+\.(?:png|jpg|jpeg|webp|gif)`)
)

// ExtractImageURL walks the ordered candidate locations of env and
// returns the first result-image URL it finds. The second return value
// is false when no candidate matched anywhere; a URL is never
// fabricated.
func ExtractImageURL(env Envelope) (string, bool) {
	if env == nil {
		return "", false
	}
	for _, s := range imageURLStrategies {
		if url, ok := s.pick(env); ok {
			return url, true
		}
	}
	return "", false
}

// artifactFileURL reads element 0 of m's artifact_files sequence.
// allowURL additionally accepts a plain "url" field, which some
// upstream models emit instead of "file_url".
func artifactFileURL(m map[string]any, allowURL bool) (string, bool) {
	first := firstEntry(sliceAt(m, "artifact_files"))
	if first == nil {
		return "", false
	}
	if u := strings.TrimSpace(stringAt(first, "file_url")); u != "" {
		return u, true
	}
	if allowURL {
		if u := strings.TrimSpace(stringAt(first, "url")); u != "" {
			return u, true
		}
	}
	return "", false
}

func fromModuleOutputArtifacts(env Envelope) (string, bool) {
	return artifactFileURL(mapAt(env, "module_outputs"), false)
}

// fromModuleOutputFields covers module_outputs shapes that carry the
// URL outside artifact_files: an exact url/image_url field, or any
// other key holding a sequence whose first element does. The remaining
// keys are scanned in sorted order so the result is deterministic.
func fromModuleOutputFields(env Envelope) (string, bool) {
	outputs := mapAt(env, "module_outputs")
	if outputs == nil {
		return "", false
	}
	for _, key := range []string{"url", "image_url"} {
		if u := strings.TrimSpace(stringAt(outputs, key)); u != "" {
			return u, true
		}
	}
	keys := make([]string, 0, len(outputs))
	for key := range outputs {
		if key == "url" || key == "image_url" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := firstEntry(sliceAt(outputs, key))
		if entry == nil {
			continue
		}
		if u := strings.TrimSpace(stringAt(entry, "file_url")); u != "" {
			return u, true
		}
		if u := strings.TrimSpace(stringAt(entry, "url")); u != "" {
			return u, true
		}
	}
	return "", false
}

func fromResponseResult(env Envelope) (string, bool) {
	result := mapAt(mapAt(env, "response"), "result")
	if result == nil {
		return "", false
	}
	for _, key := range []string{"image_url", "url", "image", "output_image", "generated_image", "file_url"} {
		if u := strings.TrimSpace(stringAt(result, key)); u != "" {
			return u, true
		}
	}
	if u, ok := artifactFileURL(result, true); ok {
		return u, true
	}
	return artifactFileURL(mapAt(result, "module_outputs"), false)
}

func fromResponseMessage(env Envelope) (string, bool) {
	msg := env.Message()
	if msg == "" {
		return "", false
	}
	if u := messageURLPattern.FindString(msg); u != "" {
		return u, true
	}
	return "", false
}

// fromRawResponse handles the doubly-serialized case: raw_response is a
// string that may itself be JSON containing a nested envelope. When it
// does not parse as an object, the string is scanned for a bare image
// URL instead.
func fromRawResponse(env Envelope) (string, bool) {
	raw, ok := env["raw_response"].(string)
	if !ok || raw == "" {
		return "", false
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		if u := rawURLPattern.FindString(raw); u != "" {
			return u, true
		}
		return "", false
	}
	nested, ok := parsed.(map[string]any)
	if !ok {
		return "", false
	}
	if u, ok := artifactFileURL(mapAt(nested, "module_outputs"), false); ok {
		return u, true
	}
	return artifactFileURL(mapAt(mapAt(nested, "response"), "module_outputs"), false)
}

// detail candidate keys, most specific first.
var (
	descriptionKeys = []string{"transformation_description", "description", "text", "message"}
	styleKeys       = []string{"style_elements_applied", "styles", "elements"}
	paletteKeys     = []string{"color_palette_used", "colors", "palette"}
)

// ExtractDetails derives transformation metadata from response.result,
// falling back to response.message as a bare description. Returns nil
// when the envelope holds nothing usable.
func ExtractDetails(env Envelope) *TransformationDetails {
	resp := mapAt(env, "response")
	if result := mapAt(resp, "result"); result != nil {
		d := &TransformationDetails{
			TransformationDescription: firstDetail(result, descriptionKeys),
			StyleElementsApplied:      firstDetail(result, styleKeys),
			ColorPaletteUsed:          firstDetail(result, paletteKeys),
		}
		if d.TransformationDescription != "" || d.StyleElementsApplied != "" || d.ColorPaletteUsed != "" {
			return d
		}
	}
	if msg := strings.TrimSpace(stringAt(resp, "message")); msg != "" {
		return &TransformationDetails{TransformationDescription: msg}
	}
	return nil
}

// firstDetail returns the first usable candidate value. Non-string
// values are serialized rather than dropped, since some models nest the
// metadata as lists or objects.
func firstDetail(m map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if s == "" {
				continue
			}
			return s
		}
		return stringify(v)
	}
	return ""
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
