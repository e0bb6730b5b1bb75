package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaValidation marks model output that failed to parse against the
// expected schema. It is never retried against the model; the owning agent
// resolves it with its deterministic fallback.
var ErrSchemaValidation = errors.New("model output failed schema validation")

// ParseStrict is stage one of the tolerant parse pipeline: a direct
// structured parse of the whole text.
func ParseStrict(text string, v interface{}) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

// ExtractObject is stage two: balanced-delimiter extraction of the first
// complete JSON object embedded in free text (models routinely wrap JSON in
// prose or code fences). Returns the raw object text.
func ExtractObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrSchemaValidation)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced JSON object", ErrSchemaValidation)
}

// ParseTolerant runs stages one and two; the caller supplies stage three,
// the typed fallback constructor, on error.
func ParseTolerant(text string, v interface{}) error {
	if err := ParseStrict(text, v); err == nil {
		return nil
	}
	obj, err := ExtractObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return nil
}

// embeddedToolCall is a tool invocation a model emits as plain JSON instead
// of the native tool-call channel.
type embeddedToolCall struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// parseEmbeddedToolCall detects a `{tool, arguments}` object in content.
func parseEmbeddedToolCall(text string) (embeddedToolCall, bool) {
	var call embeddedToolCall
	if err := ParseTolerant(text, &call); err != nil {
		return embeddedToolCall{}, false
	}
	if call.Tool == "" {
		return embeddedToolCall{}, false
	}
	return call, true
}

// decodeToolArguments parses tool-call arguments, treating malformed JSON as
// empty arguments rather than failing the turn.
func decodeToolArguments(raw string) map[string]string {
	args := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return args
	}
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return args
	}
	for k, v := range generic {
		if s, ok := v.(string); ok {
			args[k] = s
		} else {
			args[k] = fmt.Sprintf("%v", v)
		}
	}
	return args
}
