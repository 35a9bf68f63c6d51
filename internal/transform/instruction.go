package transform

import "strings"

// brandInstruction is the fixed message sent with every transform. The
// trailing request for a description feeds the details extractor.
const brandInstruction = "Transform this product photo to match the brand style guide: " +
	"apply the brand color palette, soft studio lighting, and a clean minimalist " +
	"backdrop while preserving the product's original shape and proportions. " +
	"Return the transformed image, and describe the transformation applied, the " +
	"style elements used, and the color palette."

// BuildMessage assembles the outgoing agent message. The user style
// directive is appended only when non-blank after trimming, so a
// whitespace-only directive produces the same message as none at all.
func BuildMessage(directive string) string {
	d := strings.TrimSpace(directive)
	if d == "" {
		return brandInstruction
	}
	return brandInstruction + " Additional style direction: " + d
}
