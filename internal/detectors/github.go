package detectors

import "regexp"

const GitHubTokenType = "GitHubTokenDetector"

// PAT formats evolve; cover ghp_, gho_, ghu_, ghs_, ghr_
var reGHP = regexp.MustCompile(`\bg(?:hp|ho|hu|hs|hr)_[A-Za-z0-9]{36}\b`)

func GitHubToken() *SignatureDetector {
	d := NewSignatureDetector(GitHubTokenType, reGHP)
	d.verify = looksLikeGitHubToken
	return d
}
