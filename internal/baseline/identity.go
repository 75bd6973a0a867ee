package baseline

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/redactyl/baseliner/internal/types"
	"golang.org/x/text/unicode/norm"
)

// HashSecret returns the hex SHA-1 of the NFC-normalized secret. Equivalent
// Unicode spellings of the same text hash identically.
func HashSecret(secret string) string {
	sum := sha1.Sum([]byte(norm.NFC.String(secret)))
	return hex.EncodeToString(sum[:])
}

// FromFinding converts a candidate into an unclassified record. The plaintext
// does not survive the conversion.
func FromFinding(f types.Finding) Record {
	return Record{
		Type:           f.Detector,
		Filename:       f.Path,
		HashedSecret:   HashSecret(f.Secret),
		LineNumber:     f.Line,
		Classification: Unclassified,
	}
}
