package crypto

import (
	"encoding/base64"
	"strings"
)

// B64 encodes b with the padded standard alphabet.
func B64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// FromB64 decodes s, accepting padded or unpadded standard base64 and
// ignoring surrounding whitespace from copy-paste.
func FromB64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
