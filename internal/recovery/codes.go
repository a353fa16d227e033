// Package recovery generates and verifies account recovery codes.
//
// Codes are human-readable one-time values shown to the user exactly once
// after setup. The server stores only their SHA-256 hashes, which lets it
// confirm a code was presented. The codes do not wrap any key material:
// presenting one proves account ownership but cannot decrypt content.
package recovery

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"math/big"
	"strings"
)

const (
	// CodeCount is the number of codes issued per setup.
	CodeCount = 10
	// codeLength is the number of alphabet characters per code,
	// formatted as two groups of three: XXX-XXX.
	codeLength = 6
	// alphabet omits 0 and O, which are visually ambiguous.
	alphabet = "ABCDEFGHIJKLMNPQRSTUVWXYZ123456789"
)

func generateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
		if i == 2 {
			sb.WriteByte('-')
		}
	}
	return sb.String(), nil
}

// GenerateCodes returns exactly CodeCount pairwise-distinct recovery codes
// in XXX-XXX format, drawn from a cryptographically secure random source.
func GenerateCodes() ([]string, error) {
	seen := make(map[string]struct{}, CodeCount)
	codes := make([]string, 0, CodeCount)
	for len(codes) < CodeCount {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// Normalize uppercases a code and strips separators and spaces, so that
// "abc-123" and "ABC123" verify identically.
func Normalize(code string) string {
	code = strings.ToUpper(code)
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}

// HashCode returns the base64-encoded SHA-256 hash of the normalized code.
// This is the only representation of a code the server ever stores.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(Normalize(code)))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// HashCodes hashes each code in order.
func HashCodes(codes []string) []string {
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = HashCode(c)
	}
	return hashes
}

// Verify reports whether the candidate code matches any stored hash.
// Comparison is constant-time per hash.
func Verify(code string, hashes []string) bool {
	candidate := []byte(HashCode(code))
	ok := false
	for _, h := range hashes {
		if subtle.ConstantTimeCompare(candidate, []byte(h)) == 1 {
			ok = true
		}
	}
	return ok
}
