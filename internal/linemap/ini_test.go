package linemap

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineOf(values []Value) map[string]int {
	out := map[string]int{}
	for _, v := range values {
		out[v.Value] = v.Line
	}
	return out
}

func TestParseINI_Continuation(t *testing.T) {
	values, err := ParseINI([]byte("[global]\nkey = value1\n    value2\n"))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, Value{Path: "global.key", Key: "key", Value: "value1", Line: 2, Raw: "key = value1"}, values[0])
	assert.Equal(t, "value2", values[1].Value)
	assert.Equal(t, 3, values[1].Line)
}

func TestParseINI_SkipsCommentsAndBlanks(t *testing.T) {
	in := "; leading comment\n" +
		"[db]\n" +
		"\n" +
		"user = admin\n" +
		"# the password spans lines\n" +
		"password =\n" +
		"    first\n" +
		"\n" +
		"    second\n" +
		"host: localhost\n"
	values, err := ParseINI([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"admin": 4, "first": 7, "second": 9, "localhost": 10}, lineOf(values))
}

func TestParseINI_RepeatedValuesKeepDistinctLines(t *testing.T) {
	in := "[a]\ntoken = same\n[b]\ntoken = same\n"
	values, err := ParseINI([]byte(in))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, 2, values[0].Line)
	assert.Equal(t, 4, values[1].Line)
	assert.Equal(t, "b.token", values[1].Path)
}

func TestParseINI_ExcludeLines(t *testing.T) {
	in := "[s]\nkeep = one\nskip = two # nosecret\nalso = three\n"
	values, err := ParseINI([]byte(in), WithExcludeLines(regexp.MustCompile(`nosecret`)))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"one": 2, "three": 4}, lineOf(values))
}

func TestParseINI_SyntheticHeader(t *testing.T) {
	in := "API_KEY=abc123\nOTHER = x\n"
	_, err := ParseINI([]byte(in))
	assert.ErrorIs(t, err, ErrFormatMismatch)

	values, err := ParseINI([]byte(in), WithSyntheticHeader())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"abc123": 1, "x": 2}, lineOf(values))
	assert.Equal(t, "global.API_KEY", values[0].Path)
}

func TestParseINI_Mismatch(t *testing.T) {
	cases := map[string]string{
		"plain text":   "just some words\nand more\n",
		"no sections":  "",
		"no separator": "[s]\nthis line has no separator\n",
		"go source":    "package main\n\nfunc main() {}\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseINI([]byte(in))
			assert.ErrorIs(t, err, ErrFormatMismatch)
		})
	}
}

func TestParseINI_Allowlisted(t *testing.T) {
	in := "[s]\na = one ; pragma: allowlist secret\nb = two\n"
	values, err := ParseINI([]byte(in))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.True(t, values[0].Allowlisted)
	assert.False(t, values[1].Allowlisted)
}
