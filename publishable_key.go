package jwt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// InstanceType is the environment an application instance runs in.
type InstanceType string

const (
	// Production instances use pk_live_ and sk_live_ keys.
	Production InstanceType = "production"
	// Development instances use pk_test_ and sk_test_ keys.
	Development InstanceType = "development"
)

const (
	publishableKeyLivePrefix = "pk_live_"
	publishableKeyTestPrefix = "pk_test_"
	frontendAPISentinel      = "$"
)

// ErrInvalidPublishableKey is returned by DecodePublishableKey.
var ErrInvalidPublishableKey = errors.New("jwt: invalid publishable key")

// PublishableKey is the decoded form of a publishable key.
type PublishableKey struct {
	InstanceType InstanceType `json:"instanceType"`
	FrontendAPI  string       `json:"frontendApi"`
}

type publishableKeyOptions struct {
	proxyURL        string
	satelliteDomain string
}

// PublishableKeyOption customizes the FrontendAPI of a parsed key.
type PublishableKeyOption func(*publishableKeyOptions)

// WithProxyURL replaces the decoded Frontend API with the given proxy URL.
// Applications that proxy the Frontend API through their own domain
// talk to the proxy instead of the host embedded in the key.
func WithProxyURL(proxyURL string) PublishableKeyOption {
	return func(o *publishableKeyOptions) {
		o.proxyURL = proxyURL
	}
}

// WithSatelliteDomain makes a production key resolve to "clerk.<domain>",
// the Frontend API of a satellite application. Development keys ignore it.
// WithProxyURL takes precedence.
func WithSatelliteDomain(domain string) PublishableKeyOption {
	return func(o *publishableKeyOptions) {
		o.satelliteDomain = domain
	}
}

// ParsePublishableKey decodes a publishable key.
//
// A key is "pk_live_" or "pk_test_" followed by the base64 encoding of the
// Frontend API host terminated by a "$". Any other input, including the
// empty string, yields nil; the function never panics, so it can be used
// on hot paths with untrusted input.
//
// Example:
//
//	pk := jwt.ParsePublishableKey("pk_test_Y2xlcmsuY2xlcmsuZGV2JA==")
//	// pk.InstanceType == jwt.Development, pk.FrontendAPI == "clerk.clerk.dev"
func ParsePublishableKey(key string, opts ...PublishableKeyOption) *PublishableKey {
	pk, err := DecodePublishableKey(key, opts...)
	if err != nil {
		return nil
	}

	return pk
}

// DecodePublishableKey is like ParsePublishableKey but reports why a key
// was rejected. Every error wraps ErrInvalidPublishableKey.
func DecodePublishableKey(key string, opts ...PublishableKeyOption) (*PublishableKey, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key is missing", ErrInvalidPublishableKey)
	}

	instanceType, ok := publishableKeyInstanceType(key)
	if !ok {
		return nil, fmt.Errorf("%w: unknown prefix", ErrInvalidPublishableKey)
	}

	frontendAPI, err := decodeFrontendAPI(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublishableKey, err)
	}

	var o publishableKeyOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.proxyURL != "" {
		frontendAPI = o.proxyURL
	} else if instanceType != Development && o.satelliteDomain != "" {
		frontendAPI = "clerk." + o.satelliteDomain
	}

	return &PublishableKey{
		InstanceType: instanceType,
		FrontendAPI:  frontendAPI,
	}, nil
}

// IsPublishableKey reports whether key has a publishable key prefix and a
// "$" terminated Frontend API, without building a PublishableKey.
func IsPublishableKey(key string) bool {
	if _, ok := publishableKeyInstanceType(key); !ok {
		return false
	}

	_, err := decodeFrontendAPI(key)
	return err == nil
}

// EncodePublishableKey builds the publishable key of an instance.
// ParsePublishableKey(EncodePublishableKey(t, api)) returns {t, api}.
func EncodePublishableKey(instanceType InstanceType, frontendAPI string) string {
	prefix := publishableKeyLivePrefix
	if instanceType == Development {
		prefix = publishableKeyTestPrefix
	}

	return prefix + base64StdEncode(frontendAPI+frontendAPISentinel)
}

// devFrontendAPI matches the generated hosts of development instances,
// e.g. "happy-hippo-1.clerk.accounts.dev".
var devFrontendAPI = regexp.MustCompile(`(?i)^(([a-z]+)-){2}([0-9]{1,2})\.clerk\.accounts([a-z.]*)(dev|com)$`)

// BuildPublishableKey builds a publishable key out of a Frontend API host,
// inferring the instance type from the host: generated development hosts
// and legacy "clerk.*.lcl.dev" style hosts get a pk_test_ key, every other
// host a pk_live_ one.
func BuildPublishableKey(frontendAPI string) string {
	instanceType := Production
	if devFrontendAPI.MatchString(frontendAPI) ||
		(strings.HasPrefix(frontendAPI, "clerk.") && hasAnySuffix(frontendAPI, legacyDevInstanceSuffixes)) {
		instanceType = Development
	}

	return EncodePublishableKey(instanceType, frontendAPI)
}

func publishableKeyInstanceType(key string) (InstanceType, bool) {
	switch {
	case strings.HasPrefix(key, publishableKeyLivePrefix):
		return Production, true
	case strings.HasPrefix(key, publishableKeyTestPrefix):
		return Development, true
	default:
		return "", false
	}
}

// decodeFrontendAPI decodes the third "_" separated segment of key and
// strips its "$" sentinel. A key without a third segment decodes to the
// empty string and is rejected for the missing sentinel.
func decodeFrontendAPI(key string) (string, error) {
	var encoded string
	if parts := strings.Split(key, "_"); len(parts) > 2 {
		encoded = parts[2]
	}

	decoded, err := DecodeBase64(encoded)
	if err != nil {
		return "", err
	}

	frontendAPI, ok := strings.CutSuffix(string(decoded), frontendAPISentinel)
	if !ok {
		return "", errors.New("frontend API is not terminated by $")
	}

	return frontendAPI, nil
}
