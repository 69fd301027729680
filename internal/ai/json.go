package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// extractJSON pulls the first balanced JSON object out of a model reply.
// Providers occasionally wrap structured output in markdown fences or
// prose; anything we cannot recover as valid JSON is a provider failure.
func extractJSON(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	if start < 0 {
		return "", errors.New("no JSON object in reply")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(reply); i++ {
		c := reply[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				candidate := reply[start : i+1]
				if !json.Valid([]byte(candidate)) {
					return "", errors.New("unparseable JSON object in reply")
				}
				return candidate, nil
			}
		}
	}
	return "", errors.New("unbalanced JSON object in reply")
}
