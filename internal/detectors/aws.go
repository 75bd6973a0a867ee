package detectors

import "regexp"

const AWSKeyType = "AWSKeyDetector"

var (
	reAWSAccess = regexp.MustCompile(`(?:A3T[A-Z0-9]|ABIA|ACCA|AKIA|ASIA)[0-9A-Z]{16}`)
	// Very broad; only reported when the assignment names the key.
	reAWSSecret = regexp.MustCompile(`(?i)(?:aws_secret_access_key|aws_secret_key|secretKey)["'\s:=]+([A-Za-z0-9/+=]{40})`)
)

func AWSKeys() *SignatureDetector {
	return NewSignatureDetector(AWSKeyType, reAWSAccess, reAWSSecret)
}
