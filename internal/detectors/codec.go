package detectors

import (
	"encoding/base64"
	"encoding/hex"
)

// Codec renders binary payloads in a charset's canonical textual form.
// Decode(Encode(b)) returns b for every byte slice.
type Codec interface {
	Encode(b []byte) string
	Decode(s string) ([]byte, error)
}

type Base64Codec struct{}

func (Base64Codec) Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func (Base64Codec) Decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

type HexCodec struct{}

func (HexCodec) Encode(b []byte) string { return hex.EncodeToString(b) }

func (HexCodec) Decode(s string) ([]byte, error) { return hex.DecodeString(s) }
