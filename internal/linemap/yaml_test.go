package linemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML_FlattensStrings(t *testing.T) {
	y := "" +
		"root:\n" +
		"  name: service\n" +
		"  nested:\n" +
		"    key: value\n" +
		"  port: 8080\n" +
		"list:\n" +
		"  - item1\n" +
		"  - 'quoted'\n" +
		"blob: !!binary aGVsbG8gd29ybGQ=\n"
	values, err := ParseYAML([]byte(y))
	require.NoError(t, err)
	require.Len(t, values, 5)

	type row struct {
		Path  string
		Value string
		Line  int
	}
	var got []row
	for _, v := range values {
		got = append(got, row{v.Path, v.Value, v.Line})
	}
	assert.Equal(t, []row{
		{"root.name", "service", 2},
		{"root.nested.key", "value", 4},
		{"list[0]", "item1", 7},
		{"list[1]", "quoted", 8},
		{"blob", "aGVsbG8gd29ybGQ=", 9},
	}, got)

	blob := values[4]
	assert.True(t, blob.Binary)
	assert.Equal(t, []byte("hello world"), blob.Bytes)
	assert.Equal(t, "list", values[2].Key)
}

func TestParseYAML_MultipleDocuments(t *testing.T) {
	values, err := ParseYAML([]byte("a: x\n---\nb: y\n"))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, 1, values[0].Line)
	assert.Equal(t, 3, values[1].Line)
}

func TestParseYAML_Mismatch(t *testing.T) {
	for _, in := range []string{
		"",
		"just a scalar line",
		"key: [unclosed",
		"[global]\nkey = value\n",
	} {
		_, err := ParseYAML([]byte(in))
		assert.ErrorIs(t, err, ErrFormatMismatch, "input %q", in)
	}
}

func TestParseYAML_AllowlistedComment(t *testing.T) {
	y := "token: abc # pragma: allowlist secret\nother: def\n"
	values, err := ParseYAML([]byte(y))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, values[0].Allowlisted)
	assert.Equal(t, "abc", values[0].Value)
	assert.False(t, values[1].Allowlisted)
}

func TestParseYAML_DeepNesting(t *testing.T) {
	depth := 500
	y := strings.Repeat("[", depth) + "deep" + strings.Repeat("]", depth)
	values, err := ParseYAML([]byte(y))
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "deep", values[0].Value)
	assert.Equal(t, 1, values[0].Line)
}
