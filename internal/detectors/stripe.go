package detectors

import "regexp"

const StripeType = "StripeDetector"

// live secret and restricted keys only; test-mode keys are harmless
var reStripe = regexp.MustCompile(`[rs]k_live_[A-Za-z0-9]{24,}`)

func StripeSecret() *SignatureDetector {
	return NewSignatureDetector(StripeType, reStripe)
}
