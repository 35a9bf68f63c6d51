package agent

import (
	"encoding/json"
	"testing"
)

func envelopeFromJSON(t *testing.T, raw string) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestExtractImageURLArtifactFilesWinsOverEverything(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"success": true,
		"module_outputs": {
			"artifact_files": [{"file_url": "https://cdn.example.com/a.png"}],
			"image_url": "https://cdn.example.com/wrong-1.png"
		},
		"response": {
			"result": {"image_url": "https://cdn.example.com/wrong-2.png"},
			"message": "see https://cdn.example.com/wrong-3.png"
		}
	}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/a.png" {
		t.Fatalf("unexpected extraction: %q ok=%v", url, ok)
	}
}

func TestExtractImageURLModuleOutputsDirectFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "exact url key",
			raw:  `{"module_outputs": {"url": "https://cdn.example.com/u.png"}}`,
			want: "https://cdn.example.com/u.png",
		},
		{
			name: "exact image_url key",
			raw:  `{"module_outputs": {"image_url": "https://cdn.example.com/i.png"}}`,
			want: "https://cdn.example.com/i.png",
		},
		{
			name: "other sequence key with file_url",
			raw:  `{"module_outputs": {"generated": [{"file_url": "https://cdn.example.com/g.png"}]}}`,
			want: "https://cdn.example.com/g.png",
		},
		{
			name: "other sequence key with url",
			raw:  `{"module_outputs": {"outputs": [{"url": "https://cdn.example.com/o.png"}]}}`,
			want: "https://cdn.example.com/o.png",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url, ok := ExtractImageURL(envelopeFromJSON(t, tc.raw))
			if !ok || url != tc.want {
				t.Fatalf("got %q ok=%v, want %q", url, ok, tc.want)
			}
		})
	}
}

func TestExtractImageURLEmptyArtifactsFallsThroughToResult(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"module_outputs": {"artifact_files": []},
		"response": {"result": {"image_url": "X"}}
	}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "X" {
		t.Fatalf("got %q ok=%v, want X", url, ok)
	}
}

func TestExtractImageURLResultKeyOrder(t *testing.T) {
	// image_url outranks every other result field.
	env := envelopeFromJSON(t, `{
		"response": {"result": {
			"file_url": "https://cdn.example.com/low.png",
			"image": "https://cdn.example.com/mid.png",
			"image_url": "https://cdn.example.com/top.png"
		}}
	}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/top.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLResultArtifactFilesAcceptsURLField(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"response": {"result": {"artifact_files": [{"url": "https://cdn.example.com/af.png"}]}}
	}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/af.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLResultNestedModuleOutputs(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"response": {"result": {"module_outputs": {"artifact_files": [{"file_url": "https://cdn.example.com/nested.png"}]}}}
	}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/nested.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLFromMessageText(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"message": "see https://x.com/a.png here"}}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://x.com/a.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLMessageExtensionIsCaseInsensitive(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"message": "result at HTTPS://X.COM/A.WEBP done"}}`)
	url, ok := ExtractImageURL(env)
	if !ok || url != "HTTPS://X.COM/A.WEBP" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLRawResponseParsedJSON(t *testing.T) {
	env := Envelope{
		"raw_response": `{"module_outputs": {"artifact_files": [{"file_url": "https://cdn.example.com/raw.png"}]}}`,
	}
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/raw.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLRawResponseNestedResponseEnvelope(t *testing.T) {
	env := Envelope{
		"raw_response": `{"response": {"module_outputs": {"artifact_files": [{"file_url": "https://cdn.example.com/deep.png"}]}}}`,
	}
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/deep.png" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLRawResponseUnparseableFallsBackToScan(t *testing.T) {
	env := Envelope{"raw_response": "model said: https://cdn.example.com/scan.jpg trailing"}
	url, ok := ExtractImageURL(env)
	if !ok || url != "https://cdn.example.com/scan.jpg" {
		t.Fatalf("got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLRawResponseScanExcludesSVG(t *testing.T) {
	// The raw-response scan accepts fewer extensions than the message scan.
	env := Envelope{"raw_response": "see https://cdn.example.com/vector.svg"}
	if url, ok := ExtractImageURL(env); ok {
		t.Fatalf("expected no match, got %q", url)
	}
	env = envelopeFromJSON(t, `{"response": {"message": "see https://cdn.example.com/vector.svg"}}`)
	if url, ok := ExtractImageURL(env); !ok || url != "https://cdn.example.com/vector.svg" {
		t.Fatalf("message scan should accept svg, got %q ok=%v", url, ok)
	}
}

func TestExtractImageURLNothingRecognizable(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"success": true,
		"module_outputs": {"note": "no images here"},
		"response": {"result": {"status": "done"}, "message": "all finished"},
		"raw_response": "plain text without links"
	}`)
	if url, ok := ExtractImageURL(env); ok {
		t.Fatalf("expected no match, got %q", url)
	}
}

func TestExtractImageURLNilAndEmptyEnvelopes(t *testing.T) {
	if _, ok := ExtractImageURL(nil); ok {
		t.Fatal("nil envelope must not match")
	}
	if _, ok := ExtractImageURL(Envelope{}); ok {
		t.Fatal("empty envelope must not match")
	}
}

func TestExtractImageURLIsIdempotent(t *testing.T) {
	env := envelopeFromJSON(t, `{
		"module_outputs": {"artifact_files": [{"file_url": "https://cdn.example.com/same.png"}]},
		"response": {"message": "also https://cdn.example.com/other.png"}
	}`)
	first, ok1 := ExtractImageURL(env)
	second, ok2 := ExtractImageURL(env)
	if !ok1 || !ok2 || first != second {
		t.Fatalf("extraction not idempotent: %q/%v vs %q/%v", first, ok1, second, ok2)
	}
}

func TestExtractDetailsSingleFieldIsEnough(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"result": {"styles": "a, b"}}}`)
	d := ExtractDetails(env)
	if d == nil {
		t.Fatal("expected details")
	}
	if d.TransformationDescription != "" || d.StyleElementsApplied != "a, b" || d.ColorPaletteUsed != "" {
		t.Fatalf("unexpected details: %+v", d)
	}
}

func TestExtractDetailsKeyPriority(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"result": {
		"transformation_description": "primary",
		"description": "secondary",
		"color_palette_used": "navy, gold",
		"palette": "ignored"
	}}}`)
	d := ExtractDetails(env)
	if d == nil {
		t.Fatal("expected details")
	}
	if d.TransformationDescription != "primary" {
		t.Fatalf("description priority broken: %q", d.TransformationDescription)
	}
	if d.ColorPaletteUsed != "navy, gold" {
		t.Fatalf("palette priority broken: %q", d.ColorPaletteUsed)
	}
}

func TestExtractDetailsSerializesNonStringValues(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"result": {"colors": ["#0A1F44", "#C9A227"]}}}`)
	d := ExtractDetails(env)
	if d == nil {
		t.Fatal("expected details")
	}
	if d.ColorPaletteUsed != `["#0A1F44","#C9A227"]` {
		t.Fatalf("non-string candidate not serialized: %q", d.ColorPaletteUsed)
	}
}

func TestExtractDetailsFallsBackToMessage(t *testing.T) {
	env := envelopeFromJSON(t, `{"response": {"result": {"status": 1}, "message": "applied brand style"}}`)
	// "status" is not a candidate key, so the mapping path yields nothing.
	d := ExtractDetails(env)
	if d == nil {
		t.Fatal("expected fallback details")
	}
	if d.TransformationDescription != "applied brand style" || d.StyleElementsApplied != "" || d.ColorPaletteUsed != "" {
		t.Fatalf("unexpected fallback details: %+v", d)
	}
}

func TestExtractDetailsNothingUsable(t *testing.T) {
	if d := ExtractDetails(envelopeFromJSON(t, `{"success": true}`)); d != nil {
		t.Fatalf("expected nil, got %+v", d)
	}
	if d := ExtractDetails(envelopeFromJSON(t, `{"response": {}}`)); d != nil {
		t.Fatalf("expected nil, got %+v", d)
	}
}
