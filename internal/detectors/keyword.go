package detectors

import "regexp"

const KeywordType = "KeywordDetector"

const secretKeywords = `api_?key|auth_?key|service_?key|account_?key|db_?key|database_?key|` +
	`priv_?key|private_?key|client_?key|db_?pass|database_?pass|key_?pass|` +
	`password|passwd|pwd|secret`

var (
	// password = "hunter2", "api_key": "abc", token := 'xyz'
	reKeywordQuoted = regexp.MustCompile(`(?i)(?:` + secretKeywords + `)[\w.-]*["']?\s*(?:=|:=|:|=>|==|!=)\s*["']([^"'\s]+)["']`)
	// config style: DB_PASSWORD=hunter2 or password: hunter2
	reKeywordBare = regexp.MustCompile(`(?i)^\s*[\w.-]*(?:` + secretKeywords + `)[\w.-]*\s*[:=]\s*([^\s"'#;,]{4,})\s*$`)
)

// Keyword flags values assigned to identifiers that name a credential.
func Keyword() *SignatureDetector {
	return NewSignatureDetector(KeywordType, reKeywordQuoted, reKeywordBare)
}
