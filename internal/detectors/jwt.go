package detectors

import "regexp"

const JWTType = "JwtTokenDetector"

var reJWT = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)

// JWTToken reports tokens whose header and payload decode to JSON.
func JWTToken() *SignatureDetector {
	d := NewSignatureDetector(JWTType, reJWT)
	d.verify = isJWTStructure
	return d
}
