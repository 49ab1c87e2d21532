package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoJSONFound       = errors.New("no JSON object found in output")
	ErrMultipleJSONFound = errors.New("multiple JSON objects found in output")
)

var fencedJSON = regexp.MustCompile("(?s)```[ \t]*(?i:json)[ \t]*\r?\n(.*?)```")

// Decode coerces a completion into a Result. A single JSON object carrying a
// usable doc and/or issues field becomes Structured; a field that is absent,
// null or of the wrong type is recorded as missing. Anything else is Raw.
func Decode(text string) Result {
	candidate, err := ExtractJSON(text)
	if err != nil {
		return RawText(text)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return RawText(text)
	}

	doc := DocumentIssues{original: json.RawMessage(candidate)}
	var ok bool
	if doc.Doc, ok = decodeField[string](fields, "doc"); !ok {
		doc.missing = append(doc.missing, "doc")
	}
	if doc.Issues, ok = decodeField[[]Issue](fields, "issues"); !ok {
		doc.missing = append(doc.missing, "issues")
	}
	if len(doc.missing) == 2 {
		return RawText(text)
	}
	return Structured(&doc)
}

func decodeField[T any](fields map[string]json.RawMessage, key string) (T, bool) {
	var zero T
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return zero, false
	}
	return out, true
}

// ExtractJSON returns the single JSON object in output. An object inside a
// ```json fence wins over bare objects.
func ExtractJSON(output string) (string, error) {
	var fenced []string
	for _, m := range fencedJSON.FindAllStringSubmatch(output, -1) {
		if body := strings.TrimSpace(m[1]); validObject(body) {
			fenced = append(fenced, body)
		}
	}
	objects := fenced
	if len(objects) == 0 {
		objects = bareObjects(output)
	}
	switch len(objects) {
	case 0:
		return "", ErrNoJSONFound
	case 1:
		return objects[0], nil
	default:
		return "", ErrMultipleJSONFound
	}
}

// bareObjects tries every '{' as a start so that an unbalanced quote in the
// surrounding prose cannot hide an object. Found objects are skipped whole.
func bareObjects(output string) []string {
	var objs []string
	for i := 0; i < len(output); {
		j := strings.IndexByte(output[i:], '{')
		if j < 0 {
			break
		}
		start := i + j
		if obj, ok := objectAt(output[start:]); ok {
			objs = append(objs, obj)
			i = start + len(obj)
			continue
		}
		i = start + 1
	}
	return objs
}

// objectAt returns the balanced, valid JSON object that s starts with.
func objectAt(s string) (string, bool) {
	depth := 0
	inString, escape := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escape:
			escape = false
		case inString:
			if c == '\\' {
				escape = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[:i+1], validObject(s[:i+1])
			}
		}
	}
	return "", false
}

func validObject(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if !strings.HasPrefix(candidate, "{") || !strings.HasSuffix(candidate, "}") {
		return false
	}
	return json.Valid([]byte(candidate))
}
