package llm

import (
	"math"
	"testing"
)

func TestExtractJSONObject(t *testing.T) {
	body, ok := ExtractJSONObject("Sure! Here you go:\n```json\n{\"primary_topic\": \"legal\"}\n```")
	if !ok {
		t.Fatal("expected a JSON object")
	}
	if string(body) != `{"primary_topic": "legal"}` {
		t.Errorf("extracted %q", body)
	}

	if _, ok := ExtractJSONObject("no json here"); ok {
		t.Error("expected no match")
	}
}

func TestResolveLabelExact(t *testing.T) {
	allowed := []string{"Mathematics", "Biology", "other"}
	label, conf, ok := ResolveLabel("Mathematics", 0.9, allowed)
	if !ok || label != "Mathematics" || conf != 0.9 {
		t.Errorf("got (%q, %v, %v)", label, conf, ok)
	}
}

func TestResolveLabelCaseInsensitive(t *testing.T) {
	allowed := []string{"Mathematics", "Biology", "other"}
	label, conf, ok := ResolveLabel("mathematics", 0.9, allowed)
	if !ok || label != "Mathematics" {
		t.Errorf("got (%q, %v)", label, ok)
	}
	if conf != 0.9 {
		t.Errorf("case-insensitive match must keep confidence, got %v", conf)
	}
}

func TestResolveLabelSubstring(t *testing.T) {
	allowed := []string{"Mathematics", "Biology", "other"}
	label, conf, ok := ResolveLabel("molecular biology", 0.9, allowed)
	if !ok || label != "Biology" {
		t.Errorf("got (%q, %v)", label, ok)
	}
	if math.Abs(conf-0.7) > 1e-9 {
		t.Errorf("substring match must reduce confidence by 0.2, got %v", conf)
	}
}

func TestResolveLabelSubstringConfidenceFloor(t *testing.T) {
	allowed := []string{"Mathematics", "other"}
	_, conf, ok := ResolveLabel("math", 0.35, allowed)
	if !ok {
		t.Fatal("expected substring match")
	}
	if conf != 0.3 {
		t.Errorf("confidence must not drop below 0.3, got %v", conf)
	}
}

func TestResolveLabelFallback(t *testing.T) {
	allowed := []string{"Mathematics", "Biology", "other"}
	label, conf, ok := ResolveLabel("astrology", 0.95, allowed)
	if ok {
		t.Error("expected no match")
	}
	if label != "other" || conf != 0.3 {
		t.Errorf("got (%q, %v), want (other, 0.3)", label, conf)
	}
}

func TestResolveLabelNoAllowedSet(t *testing.T) {
	label, conf, ok := ResolveLabel("anything", 0.8, nil)
	if !ok || label != "anything" || conf != 0.8 {
		t.Errorf("got (%q, %v, %v)", label, conf, ok)
	}
}

func TestFallbackLabel(t *testing.T) {
	if got := FallbackLabel([]string{"a", "Other", "b"}); got != "Other" {
		t.Errorf("got %q, want Other", got)
	}
	if got := FallbackLabel([]string{"legal", "medical"}); got != "legal" {
		t.Errorf("got %q, want legal", got)
	}
	if got := FallbackLabel(nil); got != "other" {
		t.Errorf("got %q, want other", got)
	}
}

func TestValidateClassificationSchema(t *testing.T) {
	schema := BuildClassificationSchema()

	valid := []byte(`{"primary_topic":"legal","confidence":0.8,"tags":["contract"]}`)
	if err := ValidateJSONAgainstSchema(schema, valid); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	missing := []byte(`{"category":"docs"}`)
	if err := ValidateJSONAgainstSchema(schema, missing); err == nil {
		t.Error("payload without primary_topic and confidence must fail")
	}

	outOfRange := []byte(`{"primary_topic":"legal","confidence":1.5}`)
	if err := ValidateJSONAgainstSchema(schema, outOfRange); err == nil {
		t.Error("confidence above 1.0 must fail")
	}
}
