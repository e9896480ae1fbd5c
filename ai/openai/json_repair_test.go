package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid JSON unchanged",
			input: `{"tasks": ["a", "b"]}`,
			want:  `{"tasks": ["a", "b"]}`,
		},
		{
			name:  "missing opening quote on key",
			input: `{tasks": ["a"]}`,
			want:  `{"tasks": ["a"]}`,
		},
		{
			name:  "missing opening quote after comma",
			input: `{"a": 1, b": 2}`,
			want:  `{"a": 1, "b": 2}`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}

func TestRepairJSON_ResultParses(t *testing.T) {
	repaired := repairJSON(`{tasks": ["one", "two"]}`)

	var out struct {
		Tasks []string `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
	assert.Equal(t, []string{"one", "two"}, out.Tasks)
}
