package jwt

import (
	"net/url"
	"strings"
	"sync"
)

var (
	legacyDevInstanceSuffixes = []string{".lcl.dev", ".lclstage.dev", ".lclclerk.com"}

	currentDevInstanceSuffixes = []string{".accounts.dev", ".accountsstage.dev", ".accounts.lclclerk.com"}

	devOrStagingSuffixes = []string{
		".lcl.dev",
		".stg.dev",
		".lclstage.dev",
		".stgstage.dev",
		".dev.lclclerk.com",
		".stg.lclclerk.com",
		".accounts.lclclerk.com",
		"accountsstage.dev",
		"accounts.dev",
	}
)

// URLClassifier tells development and staging hosts apart from production
// ones. Results are memoized per host; the memo lives as long as the
// classifier, so create one per process (or per test) and pass it down.
//
// A URLClassifier is safe for concurrent use.
type URLClassifier struct {
	mu    sync.RWMutex
	hosts map[string]bool
}

// NewURLClassifier returns a classifier with an empty memo.
func NewURLClassifier() *URLClassifier {
	return &URLClassifier{hosts: make(map[string]bool)}
}

// IsDevOrStagingURL reports whether rawURL, an absolute URL or a bare host,
// belongs to a development or staging deployment.
func (c *URLClassifier) IsDevOrStagingURL(rawURL string) bool {
	host := hostOf(rawURL)

	c.mu.RLock()
	res, ok := c.hosts[host]
	c.mu.RUnlock()
	if ok {
		return res
	}

	res = hasAnySuffix(host, devOrStagingSuffixes)

	c.mu.Lock()
	c.hosts[host] = res
	c.mu.Unlock()

	return res
}

// Len returns the number of memoized hosts.
func (c *URLClassifier) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hosts)
}

// Reset drops the memo.
func (c *URLClassifier) Reset() {
	c.mu.Lock()
	c.hosts = make(map[string]bool)
	c.mu.Unlock()
}

// IsLegacyDevAccountPortalOrigin reports whether host is the account
// portal of a development instance created before the accounts.dev domains,
// e.g. "accounts.foo.bar-13.lcl.dev".
func IsLegacyDevAccountPortalOrigin(host string) bool {
	return strings.HasPrefix(host, "accounts.") && hasAnySuffix(host, legacyDevInstanceSuffixes)
}

// IsCurrentDevAccountPortalOrigin reports whether host is the account
// portal of a development instance, e.g. "happy-hippo-1.accounts.dev".
// The Frontend API host of the same instance ("*.clerk.accounts.dev") is
// not a portal origin.
func IsCurrentDevAccountPortalOrigin(host string) bool {
	for _, suffix := range currentDevInstanceSuffixes {
		if strings.HasSuffix(host, suffix) && !strings.HasSuffix(host, ".clerk"+suffix) {
			return true
		}
	}

	return false
}

func hostOf(rawURL string) string {
	if strings.Contains(rawURL, "://") {
		if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}

	return rawURL
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}

	return false
}
