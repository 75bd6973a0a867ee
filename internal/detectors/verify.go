package detectors

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const base62 = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// isAlphabet returns true if all characters in s are in allowed set.
func isAlphabet(s, allowed string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(allowed, rune(s[i])) {
			return false
		}
	}
	return true
}

// looksLikeGitHubToken accepts gh[pousr]_ followed by 36 base62 chars.
func looksLikeGitHubToken(s string) bool {
	if len(s) != 40 || !strings.HasPrefix(s, "gh") || s[3] != '_' {
		return false
	}
	if !strings.ContainsRune("pousr", rune(s[2])) {
		return false
	}
	return isAlphabet(s[4:], base62)
}

// isJWTStructure requires three segments with header and payload decoding to
// JSON objects. The signature is not checked.
func isJWTStructure(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts[:2] {
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(p, "="))
		if err != nil {
			return false
		}
		if !json.Valid(raw) || !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
			return false
		}
	}
	return true
}
