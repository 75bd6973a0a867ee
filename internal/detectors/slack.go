package detectors

import "regexp"

const SlackType = "SlackDetector"

var (
	reSlack        = regexp.MustCompile(`xox[abposr]-[A-Za-z0-9-]{10,48}`)
	reSlackWebhook = regexp.MustCompile(`https://hooks\.slack\.com/services/T[A-Za-z0-9_]+/B[A-Za-z0-9_]+/[A-Za-z0-9_]+`)
)

func SlackToken() *SignatureDetector {
	return NewSignatureDetector(SlackType, reSlack, reSlackWebhook)
}
