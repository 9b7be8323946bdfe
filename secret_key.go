package jwt

import "strings"

// InstanceTypeFromSecretKey returns the instance type a secret key belongs
// to. Both the current "sk_live_"/"sk_test_" and the legacy
// "live_"/"test_" prefixes are recognized.
func InstanceTypeFromSecretKey(secretKey string) (InstanceType, bool) {
	switch {
	case strings.HasPrefix(secretKey, "sk_live_"), strings.HasPrefix(secretKey, "live_"):
		return Production, true
	case strings.HasPrefix(secretKey, "sk_test_"), strings.HasPrefix(secretKey, "test_"):
		return Development, true
	default:
		return "", false
	}
}

// IsDevelopmentFromSecretKey reports whether secretKey is a development key.
func IsDevelopmentFromSecretKey(secretKey string) bool {
	t, ok := InstanceTypeFromSecretKey(secretKey)
	return ok && t == Development
}

// IsProductionFromSecretKey reports whether secretKey is a production key.
func IsProductionFromSecretKey(secretKey string) bool {
	t, ok := InstanceTypeFromSecretKey(secretKey)
	return ok && t == Production
}
