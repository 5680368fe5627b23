package providers

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CleanText collapses whitespace, including non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = CleanText(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

// categories merges the list-valued and single-valued category fields,
// keeping order and dropping duplicates. typ is only used when types is empty.
func categories(types []string, typ, category string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(c string) {
		c = CleanText(c)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	if len(types) > 0 {
		for _, t := range types {
			add(t)
		}
	} else {
		add(typ)
	}
	add(category)
	return out
}

// openingHours keeps object payloads as-is and wraps a bare string into
// {"info": "..."}. Anything else is dropped.
func openingHours(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '{':
		return raw
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || CleanText(s) == "" {
			return nil
		}
		b, err := json.Marshal(map[string]string{"info": CleanText(s)})
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

func objectOnly(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	return raw
}
