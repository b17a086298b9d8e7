package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DomainArtifact prefixes every artifact hash. The version suffix allows a
// future change of normalization without colliding with stored IDs.
const DomainArtifact = "aiden/artifact/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize returns code in NFC with CRLF line endings converted to LF.
func Normalize(code string) string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	return norm.NFC.String(code)
}

// ID returns the content-addressed identifier of code.
func ID(code string) string {
	return hashWithDomain(DomainArtifact, []byte(Normalize(code)))
}

// ShortID returns the first 12 hex characters of an artifact ID, for display.
func ShortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
