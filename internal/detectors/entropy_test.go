package detectors

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/redactyl/baseliner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexSecret = "2b00042f7481c7b056c4b410d28f33cf"
const b64Secret = "c3VwZXIgbG9uZyBzdHJpbmcgc2hvdWxkIGNhdXNlIGVub3VnaCBlbnRyb3B5"

func randomFrom(r *rand.Rand, symbols string, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = symbols[r.Intn(len(symbols))]
	}
	return string(b)
}

func TestShannon_Bounds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, cs := range []Charset{HexCharset, Base64Charset} {
		assert.Equal(t, 0.0, Shannon("", cs.Symbols), cs.Type)
		upper := math.Log2(float64(len(cs.Symbols)))
		for i := 0; i < 200; i++ {
			s := randomFrom(r, cs.Symbols, 1+r.Intn(120))
			h := Shannon(s, cs.Symbols)
			assert.GreaterOrEqual(t, h, 0.0, s)
			assert.LessOrEqual(t, h, upper+1e-9, s)
		}
	}
}

func TestShannon_SingleSymbolIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, Shannon("aaaaaaaa", HexCharset.Symbols), 1e-12)
}

func TestHexNumericPenalty(t *testing.T) {
	prevGap := math.Inf(1)
	for l := 2; l <= 64; l++ {
		s := randomFrom(rand.New(rand.NewSource(int64(l))), "0123456789", l)
		raw := Shannon(s, HexCharset.Symbols)
		adj := HexCharset.Entropy(s)
		assert.Less(t, adj, raw, "len %d", l)
		gap := raw - adj
		assert.Less(t, gap, prevGap, "gap must shrink as length grows (len %d)", l)
		prevGap = gap
	}
	// one digit and strings carrying hex letters are untouched
	assert.Equal(t, Shannon("7", HexCharset.Symbols), HexCharset.Entropy("7"))
	assert.Equal(t, Shannon(hexSecret, HexCharset.Symbols), HexCharset.Entropy(hexSecret))
}

func TestCodecRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	inputs := [][]byte{{}, {0}, {0xff, 0x00, 0x10}, []byte("hello world")}
	for i := 0; i < 100; i++ {
		b := make([]byte, r.Intn(256))
		r.Read(b)
		inputs = append(inputs, b)
	}
	for _, c := range []Codec{Base64Codec{}, HexCodec{}} {
		for _, in := range inputs {
			out, err := c.Decode(c.Encode(in))
			require.NoError(t, err)
			assert.Equal(t, len(in), len(out))
			assert.Equal(t, string(in), string(out))
		}
	}
}

func TestNewEntropyDetector_Limits(t *testing.T) {
	for _, limit := range []float64{-0.1, 8.01, math.NaN()} {
		_, err := NewEntropyDetector(HexCharset, limit)
		assert.ErrorIs(t, err, ErrInvalidConfig, "limit %v", limit)
	}
	for _, limit := range []float64{0, 4.5, 8} {
		_, err := NewEntropyDetector(Base64Charset, limit)
		assert.NoError(t, err, "limit %v", limit)
	}
}

func TestEntropyAnalyzeLine_Modes(t *testing.T) {
	d, err := NewEntropyDetector(HexCharset, 3.0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		line  string
		mode  Mode
		wants []string
	}{
		{"quoted double", `secret = "` + hexSecret + `"`, ModeQuoted, []string{hexSecret}},
		{"quoted single", `secret = '` + hexSecret + `'`, ModeQuoted, []string{hexSecret}},
		{"quoted ignores bare", `secret = ` + hexSecret, ModeQuoted, nil},
		{"unquoted finds runs", `secret ` + hexSecret, ModeUnquoted, []string{hexSecret}},
		{"exact whole value", hexSecret, ModeExact, []string{hexSecret}},
		{"exact rejects mixed", "x " + hexSecret, ModeExact, nil},
		{"numeric id suppressed", `id = "1234567890123456"`, ModeQuoted, nil},
		{"low entropy", `"deadbeef"`, ModeQuoted, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, f := range d.AnalyzeLine(tt.line, 3, "f.txt", tt.mode) {
				got = append(got, f.Secret)
				assert.Equal(t, 3, f.Line)
				assert.Equal(t, HexEntropyType, f.Detector)
			}
			assert.Equal(t, tt.wants, got)
		})
	}
}

func TestEntropyAnalyzeLine_ConcurrentModesDoNotInterfere(t *testing.T) {
	d, err := NewEntropyDetector(HexCharset, 3.0)
	require.NoError(t, err)
	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(i int) {
			mode := ModeQuoted
			if i%2 == 0 {
				mode = ModeExact
			}
			ok := true
			for j := 0; j < 200; j++ {
				n := len(d.AnalyzeLine(hexSecret, 1, "f", mode))
				if (mode == ModeExact) != (n == 1) {
					ok = false
				}
			}
			done <- ok
		}(i)
	}
	for i := 0; i < 8; i++ {
		assert.True(t, <-done)
	}
}

func TestEntropyAnalyze_FallbackOrder(t *testing.T) {
	d, err := NewEntropyDetector(HexCharset, 3.0)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		line int
	}{
		{"ini", "[creds]\nuser = bob\nkey = " + hexSecret + "\n", 3},
		{"yaml", "creds:\n  user: bob\n  key: " + hexSecret + "\n", 3},
		{"plain", "package x\n\nconst k = \"" + hexSecret + "\"\n", 3},
		{"header-less env", "USER=bob\nTOKEN=" + hexSecret + "\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := d.Analyze("f", []byte(tt.in))
			require.Len(t, fs, 1)
			assert.Equal(t, tt.line, fs[0].Line)
			assert.Equal(t, hexSecret, fs[0].Secret)
		})
	}
}

func TestEntropyAnalyze_VetoRunsBeforeFallback(t *testing.T) {
	d, err := NewEntropyDetector(HexCharset, 3.0)
	require.NoError(t, err)
	in := "[app]\nname = 0123456789abcdef\n; old = \"" + hexSecret + "\"\n"

	fs := d.Analyze("app.ini", []byte(in))
	require.Len(t, fs, 1)
	assert.Equal(t, 2, fs[0].Line)

	dropIniValue := func(f types.Finding) (bool, error) { return f.Secret == "0123456789abcdef", nil }
	fs, err = d.AnalyzeWithVeto("app.ini", []byte(in), dropIniValue)
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 3, fs[0].Line)
	assert.Equal(t, hexSecret, fs[0].Secret)

	_, err = d.AnalyzeWithVeto("app.ini", []byte(in), func(types.Finding) (bool, error) { return false, errors.New("boom") })
	assert.Error(t, err)
}

func TestEntropyAnalyze_YAMLBinary(t *testing.T) {
	d, err := NewEntropyDetector(Base64Charset, 4.5)
	require.NoError(t, err)
	in := "blob: !!binary " + b64Secret + "\nname: plain\n"
	fs := d.Analyze("f.yaml", []byte(in))
	require.Len(t, fs, 1)
	assert.Equal(t, 1, fs[0].Line)
	assert.Equal(t, b64Secret, fs[0].Secret)
}

func TestEntropyAnalyze_ExcludeLines(t *testing.T) {
	reg := Default()
	det, err := reg.New(HexEntropyType, nil, Options{ExcludeLines: regexpMust(`fixture`)})
	require.NoError(t, err)
	in := "const a = \"" + hexSecret + "\" // fixture\n"
	assert.Empty(t, det.Analyze("f.go", []byte(in)))
}
