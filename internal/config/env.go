package config

import (
	"encoding/json"
	"os"
	"regexp"
)

// Matches ${VAR_NAME} placeholders in config values.
var envPlaceholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} placeholders with values from the process
// environment. Unset variables keep the placeholder text so the caller
// can tell resolution failed instead of silently sending an empty
// credential. Resolution happens at send time; the resolved value is
// never written back into the config.
func ExpandEnv(s string) string {
	return envPlaceholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := envPlaceholderRe.FindStringSubmatch(m)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return m
	})
}

// HasPlaceholder reports whether s still contains an unresolved ${VAR}.
func HasPlaceholder(s string) bool {
	return envPlaceholderRe.MatchString(s)
}

// ExpandJSONValues walks a raw JSON document and expands ${VAR}
// placeholders in every string value. Used by the runner to resolve
// plugin-config templates before handing them to a plugin, so plugins
// never touch the environment themselves. Expansion is per-value, not
// textual, so env values cannot break the document structure.
func ExpandJSONValues(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	out, err := json.Marshal(expandAny(v))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func expandAny(v any) any {
	switch x := v.(type) {
	case string:
		return ExpandEnv(x)
	case map[string]any:
		for k, e := range x {
			x[k] = expandAny(e)
		}
		return x
	case []any:
		for i := range x {
			x[i] = expandAny(x[i])
		}
		return x
	default:
		return v
	}
}
