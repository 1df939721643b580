package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cobaltcommerce/cobalt-backend/pkg/enums"
)

const (
	apiKeySecretLen = 26
	apiKeyCharset   = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// GeneratedAPIKey carries the one-time plaintext alongside the values safe to
// persist. The plaintext is never stored.
type GeneratedAPIKey struct {
	Plaintext string
	Hash      string
	Mask      string
}

// GenerateAPIKey mints a storefront key of the form sk_<perm>_<secret>, where
// perm is the first four characters of the permission and secret is 26 random
// base36 characters.
func GenerateAPIKey(permission enums.ApiKeyPermission) (*GeneratedAPIKey, error) {
	if !permission.IsValid() {
		return nil, fmt.Errorf("invalid api key permission %q", permission)
	}

	secret := make([]byte, apiKeySecretLen)
	for i := range secret {
		idx, err := randInt(len(apiKeyCharset))
		if err != nil {
			return nil, fmt.Errorf("generate api key: %w", err)
		}
		secret[i] = apiKeyCharset[idx]
	}

	prefix := string(permission)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	plaintext := fmt.Sprintf("sk_%s_%s", prefix, secret)

	return &GeneratedAPIKey{
		Plaintext: plaintext,
		Hash:      HashAPIKey(plaintext),
		Mask:      MaskAPIKey(plaintext),
	}, nil
}

// HashAPIKey returns the hex-encoded sha256 digest used for lookups.
func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// MaskAPIKey renders the display form: the first seven characters, an
// ellipsis, and the last four.
func MaskAPIKey(plaintext string) string {
	if len(plaintext) <= 11 {
		return plaintext
	}
	return plaintext[:7] + "..." + plaintext[len(plaintext)-4:]
}

// LooksLikeAPIKey reports whether the provided value has the issued key shape,
// used to short-circuit lookups on garbage input.
func LooksLikeAPIKey(value string) bool {
	return strings.HasPrefix(value, "sk_") && len(value) > 11
}
