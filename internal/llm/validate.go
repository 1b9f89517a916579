package llm

import (
	"regexp"
	"strings"
)

// fallbackConfidence caps the score of any classification we could not
// reconcile with the allowed label set.
const fallbackConfidence = 0.3

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject pulls the first JSON object out of free-form model
// output. The adapter's reply is untrusted text that usually, but not
// always, is bare JSON.
func ExtractJSONObject(content string) ([]byte, bool) {
	m := jsonObject.FindString(content)
	if m == "" {
		return nil, false
	}
	return []byte(m), true
}

// ResolveLabel reconciles the label chosen by the model against the
// caller's allowed set: exact match, then case-insensitive, then
// substring, finally the designated fallback with confidence capped.
// Returns the resolved label, the (possibly reduced) confidence, and
// whether any match was found.
func ResolveLabel(chosen string, confidence float64, allowed []string) (string, float64, bool) {
	if len(allowed) == 0 {
		return chosen, confidence, chosen != ""
	}

	for _, l := range allowed {
		if chosen == l {
			return l, confidence, true
		}
	}

	chosenLower := strings.ToLower(strings.TrimSpace(chosen))
	for _, l := range allowed {
		if strings.ToLower(l) == chosenLower {
			return l, confidence, true
		}
	}

	if chosenLower != "" {
		for _, l := range allowed {
			ll := strings.ToLower(l)
			if strings.Contains(ll, chosenLower) || strings.Contains(chosenLower, ll) {
				c := confidence - 0.2
				if c < fallbackConfidence {
					c = fallbackConfidence
				}
				return l, c, true
			}
		}
	}

	return FallbackLabel(allowed), fallbackConfidence, false
}

// FallbackLabel picks "other" when present, else the first allowed label.
func FallbackLabel(allowed []string) string {
	for _, l := range allowed {
		if strings.EqualFold(l, "other") {
			return l
		}
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return "other"
}
