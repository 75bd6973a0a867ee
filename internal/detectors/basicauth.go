package detectors

import "regexp"

const BasicAuthType = "BasicAuthDetector"

// URI reserved characters per RFC 3986; neither the user nor the password
// segment may contain them unescaped.
const uriReserved = `:/?#\[\]@!$&'()*+,;=`

var reBasicAuth = regexp.MustCompile(`://[^` + uriReserved + `\s]+:([^` + uriReserved + `\s]+)@`)

// BasicAuth flags credentials embedded in a URI authority, reporting the
// password segment.
func BasicAuth() *SignatureDetector {
	return NewSignatureDetector(BasicAuthType, reBasicAuth)
}
