package detectors

import "regexp"

const TwilioType = "TwilioKeyDetector"

// Account SID: AC + 32 hex; API key SID: SK + 32 hex.
var reTwilioSID = regexp.MustCompile(`\b(?:AC|SK)[0-9a-fA-F]{32}\b`)

func Twilio() *SignatureDetector {
	return NewSignatureDetector(TwilioType, reTwilioSID)
}
