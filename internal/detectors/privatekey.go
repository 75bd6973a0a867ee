package detectors

import (
	"regexp"
	"strings"
)

const PrivateKeyType = "PrivateKeyDetector"

var privateKeyPhrases = []string{
	"BEGIN DSA PRIVATE KEY",
	"BEGIN EC PRIVATE KEY",
	"BEGIN OPENSSH PRIVATE KEY",
	"BEGIN PGP PRIVATE KEY BLOCK",
	"BEGIN PRIVATE KEY",
	"BEGIN RSA PRIVATE KEY",
	"BEGIN SSH2 ENCRYPTED PRIVATE KEY",
	"PuTTY-User-Key-File-2",
}

var rePrivateKey = func() *regexp.Regexp {
	quoted := make([]string, len(privateKeyPhrases))
	for i, p := range privateKeyPhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?:` + strings.Join(quoted, "|") + `)`)
}()

// PrivateKeyBlock matches key armor headers. The matches are fixed phrases,
// so the detector is exempt from heuristic filters.
func PrivateKeyBlock() *SignatureDetector {
	d := NewSignatureDetector(PrivateKeyType, rePrivateKey)
	d.exempt = true
	return d
}
