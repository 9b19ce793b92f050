package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "Two stream fragments",
			raw:  "{\"response\":\"hel\"}\n{\"response\":\"lo\"}",
			want: "hello",
		},
		{
			name: "Ollama stream with done marker and keep-alive noise",
			raw:  "{\"model\":\"m\",\"response\":\"I hear \",\"done\":false}\n: keep-alive\n{\"response\":\"you.\",\"done\":false}\n{\"response\":\"\",\"done\":true}\n",
			want: "I hear you.",
		},
		{
			name: "Text field fallback",
			raw:  "{\"text\":\"from text\"}",
			want: "from text",
		},
		{
			name: "Pretty printed single document",
			raw:  "{\n  \"model\": \"m\",\n  \"response\": \"  whole answer \"\n}",
			want: "whole answer",
		},
		{
			name: "Plain text is returned unchanged",
			raw:  "Just some prose, no JSON here.\n",
			want: "Just some prose, no JSON here.\n",
		},
		{
			name: "JSON without content yields the sentinel",
			raw:  "{\"done\":true}",
			want: UnexpectedResponse,
		},
		{
			name: "Empty body yields the sentinel",
			raw:  "   ",
			want: UnexpectedResponse,
		},
		{
			name: "Truncated JSON is treated as prose",
			raw:  "{\"response\":\"cut",
			want: "{\"response\":\"cut",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Extract(tt.raw))
		})
	}
}

func TestStrategies_Independently(t *testing.T) {
	req := require.New(t)

	_, ok := StreamFragments("plain")
	req.False(ok)
	_, ok = SingleDocument("{\"response\": 42}")
	req.False(ok)
	_, ok = PlainText("{\"a\":1}")
	req.False(ok)

	out, ok := Run([]Strategy{PlainText}, "hi")
	req.True(ok)
	req.Equal("hi", out)

	_, ok = Best("")
	req.False(ok)
}

func TestJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr error
	}{
		{
			name: "Bare object",
			raw:  `{"joy": 50, "sadness": 50}`,
			want: map[string]any{"joy": float64(50), "sadness": float64(50)},
		},
		{
			name: "Object surrounded by commentary",
			raw:  "Sure! Here it is:\n{\"joy\": 10}\nHope this helps.",
			want: map[string]any{"joy": float64(10)},
		},
		{
			name: "Response field with encoded JSON string",
			raw:  `{"model":"m","response":"{\"fear\": 0.4, \"anger\": 0.6}","done":true}`,
			want: map[string]any{"fear": 0.4, "anger": 0.6},
		},
		{
			name: "Response field with inline object",
			raw:  `{"response": {"surprise": 100}}`,
			want: map[string]any{"surprise": float64(100)},
		},
		{
			name: "Response string with prose around the object",
			raw:  `{"response":"Result: {\"joy\": 1}"}`,
			want: map[string]any{"joy": float64(1)},
		},
		{
			name: "Response field of another type",
			raw:  `{"response": 12}`,
			want: map[string]any{},
		},
		{
			name: "Streamed fragments carrying the object",
			raw:  "{\"response\":\"{\\\"joy\\\": \"}\n{\"response\":\"70}\"}\n{\"response\":\"\",\"done\":true}",
			want: map[string]any{"joy": float64(70)},
		},
		{
			name:    "No object at all",
			raw:     "I cannot analyze this text.",
			wantErr: ErrNoJSONObject,
		},
		{
			name:    "Inner string is not JSON",
			raw:     `{"response":"joy is high"}`,
			wantErr: ErrNestedJSON,
		},
		{
			name:    "Inner string is broken JSON",
			raw:     `{"response":"{\"joy\": }"}`,
			wantErr: ErrNestedJSON,
		},
		{
			name:    "Outer span malformed",
			raw:     "{joy: 10}",
			wantErr: ErrMalformedJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONObject(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
