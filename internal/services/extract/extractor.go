// Package extract turns raw inference replies into usable content.
//
// Two entry points exist. Best and Extract run a best-effort chain for free text
// replies and never fail. JSONObject is strict: it digs the first JSON object out
// of the reply and fails when there is none, because numeric post-processing
// cannot work on prose.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// UnexpectedResponse is returned by Extract when no strategy yields content
const UnexpectedResponse = "Unexpected response from the model."

var (
	ErrNoJSONObject  = errors.New("no JSON object found in model output")
	ErrMalformedJSON = errors.New("model output contains malformed JSON")
	ErrNestedJSON    = errors.New("nested response JSON could not be parsed")
)

// Strategy tries to extract an answer from a raw reply
type Strategy func(raw string) (string, bool)

// DefaultChain is the order replies are tried in: streamed fragments, a single
// document, then the plain body.
var DefaultChain = []Strategy{StreamFragments, SingleDocument, PlainText}

// Best runs DefaultChain and reports whether any strategy succeeded
func Best(raw string) (string, bool) {
	return Run(DefaultChain, raw)
}

// Run returns the result of the first strategy that succeeds
func Run(chain []Strategy, raw string) (string, bool) {
	for _, s := range chain {
		if out, ok := s(raw); ok {
			return out, true
		}
	}
	return "", false
}

// Extract returns the best-effort answer or UnexpectedResponse
func Extract(raw string) string {
	if out, ok := Best(raw); ok {
		return out
	}
	return UnexpectedResponse
}

// StreamFragments concatenates the response (or text) field of every
// newline-delimited JSON line. Lines that are not JSON objects are skipped.
func StreamFragments(raw string) (string, bool) {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !gjson.Valid(line) {
			continue
		}
		doc := gjson.Parse(line)
		if !doc.IsObject() {
			continue
		}
		sb.WriteString(fragmentText(doc))
	}

	out := strings.TrimSpace(sb.String())
	return out, out != ""
}

func fragmentText(doc gjson.Result) string {
	for _, field := range []string{"response", "text"} {
		if v := doc.Get(field); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// SingleDocument reads the response field of a body that is one JSON document,
// possibly spread over several lines.
func SingleDocument(raw string) (string, bool) {
	body := strings.TrimSpace(raw)
	if !gjson.Valid(body) {
		return "", false
	}
	v := gjson.Get(body, "response")
	if v.Type != gjson.String {
		return "", false
	}
	out := strings.TrimSpace(v.Str)
	return out, out != ""
}

// PlainText returns the body verbatim when it is non-blank and not JSON
func PlainText(raw string) (string, bool) {
	body := strings.TrimSpace(raw)
	if body == "" || gjson.Valid(body) {
		return "", false
	}
	return raw, true
}

var objectSpan = regexp.MustCompile(`(?s)\{.*\}`)

// JSONObject returns the first greedy {...} span of raw as an object. When the
// object carries a response field holding an object or a JSON-encoded string,
// that inner object is returned instead.
func JSONObject(raw string) (map[string]any, error) {
	obj, err := parseSpan(raw)
	if err != nil {
		// a streamed reply spreads the object over fragments
		joined, ok := StreamFragments(raw)
		if !ok {
			return nil, err
		}
		var streamErr error
		if obj, streamErr = parseSpan(joined); streamErr != nil {
			return nil, err
		}
		// fragments are already the inner response text
		return obj, nil
	}

	inner, ok := obj["response"]
	if !ok {
		return obj, nil
	}

	switch v := inner.(type) {
	case map[string]any:
		return v, nil
	case string:
		nested, err := parseSpan(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNestedJSON, err)
		}
		return nested, nil
	default:
		return map[string]any{}, nil
	}
}

func parseSpan(raw string) (map[string]any, error) {
	span := objectSpan.FindString(raw)
	if span == "" {
		return nil, ErrNoJSONObject
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return obj, nil
}
