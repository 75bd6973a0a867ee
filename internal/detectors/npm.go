package detectors

import "regexp"

const NPMType = "NpmDetector"

var (
	reNPMToken = regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)
	// .npmrc registry auth line
	reNPMRC = regexp.MustCompile(`//[^\s]+/:_authToken=\s*((?:npm_)?[A-Za-z0-9_-]{20,})`)
)

func NPMToken() *SignatureDetector {
	return NewSignatureDetector(NPMType, reNPMToken, reNPMRC)
}
