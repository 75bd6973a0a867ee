package detectors

import "regexp"

const SendGridType = "SendGridDetector"

var reSendGrid = regexp.MustCompile(`\bSG\.[A-Za-z0-9_-]{16,32}\.[A-Za-z0-9_-]{32,64}\b`)

func SendGridAPIKey() *SignatureDetector {
	return NewSignatureDetector(SendGridType, reSendGrid)
}
