package filters

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

const (
	WordlistID = "wordlist.should_exclude_secret"

	defaultMinLength = 3
)

// Wordlist excludes secrets containing any word of a word-list file,
// compared case-insensitively. The automaton is built once per session and
// keyed by the file's content hash.
type Wordlist struct {
	session   *Session
	filename  string
	minLength int
	fileHash  string
	trie      *ahocorasick.Trie
}

func (w *Wordlist) ID() string { return WordlistID }

// Initialize reads wordlist_filename and min_length and hashes the file.
func (w *Wordlist) Initialize(params map[string]any) error {
	name, _ := params["wordlist_filename"].(string)
	if name == "" {
		return fmt.Errorf("%w: wordlist_filename is required", ErrInvalidParams)
	}
	minLen, err := intParam(params, "min_length", defaultMinLength)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read word list: %w", err)
	}
	w.filename = name
	w.minLength = minLen
	w.fileHash = FileHash(data)

	key := w.fileHash + ":" + strconv.Itoa(minLen)
	w.trie = w.session.Trie(key, func() *ahocorasick.Trie {
		words := loadWords(data, minLen)
		if len(words) == 0 {
			return nil
		}
		return ahocorasick.NewTrieBuilder().AddStrings(words).Build()
	})
	return nil
}

func (w *Wordlist) Params() map[string]any {
	return map[string]any{
		"wordlist_filename": w.filename,
		"min_length":        w.minLength,
		"file_hash":         w.fileHash,
	}
}

func (w *Wordlist) ShouldExclude(c Candidate) (bool, error) {
	if w.trie == nil {
		return false, nil
	}
	return len(w.trie.MatchString(strings.ToLower(c.Secret))) > 0, nil
}

// FileHash is the hex SHA-1 of a filter data file as recorded in baselines.
func FileHash(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func loadWords(data []byte, minLen int) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if len(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParams, key, v)
}
