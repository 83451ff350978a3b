package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultPoints       = 50
	defaultProductName  = "Product"
	defaultExplanation  = "No analysis available"
	defaultAlternatives = "No alternatives suggested"
)

var placeholderNames = map[string]struct{}{
	"product":      {},
	"item":         {},
	"unknown":      {},
	"unidentified": {},
}

// Normalize coerces an untrusted RawScore into a NormalizedScore. It never
// fails, and Normalize(Normalize(x).Raw(name)) equals Normalize(x) when x was
// built with the same supplied name.
func Normalize(raw RawScore) NormalizedScore {
	return NormalizedScore{
		Rating:       normalizeRating(raw.Rating),
		Points:       normalizePoints(raw.Points),
		ProductName:  normalizeName(raw.DetectedProductName, raw.SuppliedName),
		Explanation:  normalizeText(raw.Explanation, MaxExplanationLen, defaultExplanation),
		Alternatives: normalizeText(raw.Alternatives, MaxAlternativesLen, defaultAlternatives),
		Fallback:     raw.Fallback,
	}
}

func normalizeRating(v any) Rating {
	switch t := v.(type) {
	case string:
		return ParseRating(t)
	case Rating:
		return ParseRating(string(t))
	}
	return RatingModerate
}

func normalizePoints(v any) int {
	switch t := v.(type) {
	case int:
		return clampPoints(t)
	case int64:
		return clampInt64(t)
	case float64:
		return pointsFromFloat(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return clampInt64(i)
		}
		if f, err := t.Float64(); err == nil {
			return pointsFromFloat(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return clampInt64(i)
		}
	}
	return defaultPoints
}

func pointsFromFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultPoints
	}
	f = math.Trunc(f)
	if f < MinPoints {
		return MinPoints
	}
	if f > MaxPoints {
		return MaxPoints
	}
	return int(f)
}

func clampInt64(i int64) int {
	if i < MinPoints {
		return MinPoints
	}
	if i > MaxPoints {
		return MaxPoints
	}
	return int(i)
}

func normalizeName(detected any, supplied string) string {
	name, _ := detected.(string)
	name = clip(name, MaxProductNameLen)
	supplied = clip(supplied, MaxProductNameLen)

	if supplied != "" && (name == "" || isPlaceholder(name) ||
		utf8.RuneCountInString(name) < utf8.RuneCountInString(supplied)) {
		name = supplied
	}
	if name == "" {
		name = defaultProductName
	}
	return name
}

func isPlaceholder(name string) bool {
	_, ok := placeholderNames[strings.ToLower(name)]
	return ok
}

func normalizeText(v any, limit int, fallback string) string {
	s := clip(flatten(v), limit)
	if s == "" {
		s = fallback
	}
	return s
}

// clip trims whitespace around s and cuts it to at most limit runes.
func clip(s string, limit int) string {
	return strings.TrimSpace(truncateRunes(strings.TrimSpace(s), limit))
}

// flatten renders provider output as plain text. Maps become "key: v1, v2. "
// entries with keys sorted, lists are joined with ". ".
func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(k)
			b.WriteString(": ")
			if list, ok := t[k].([]any); ok {
				b.WriteString(joinScalars(list, ", "))
			} else {
				b.WriteString(scalar(t[k]))
			}
			b.WriteString(". ")
		}
		return b.String()
	case []any:
		return joinScalars(t, ". ")
	case []string:
		return strings.Join(t, ". ")
	}
	return scalar(v)
}

func joinScalars(items []any, sep string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, scalar(it))
	}
	return strings.Join(parts, sep)
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
