package jsonx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading and trailing prose", `Sure! {"a":1} — hope that helps`, `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"nested object", `noise {"a":{"b":2}} tail`, `{"a":{"b":2}}`},
		{"brace inside string", `{"a":"}{","b":1}`, `{"a":"}{","b":1}`},
		{"escaped quote inside string", `{"a":"say \"}\"","b":2}`, `{"a":"say \"}\"","b":2}`},
		{"second object ignored", `{"a":1} {"b":2}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractObjectNoObject(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"never":"closed"`, "}{"} {
		_, err := ExtractObject(raw)
		assert.True(t, errors.Is(err, ErrNoObject), "input %q", raw)
	}
}

func TestDecodeObject(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	require.NoError(t, DecodeObject(`Sure! {"a":1} — hope that helps`, &out))
	assert.Equal(t, 1, out.A)

	err := DecodeObject(`text {"a":"not an int"} text`, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoObject))
}
