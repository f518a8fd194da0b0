package domains

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootDomain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"url with subdomain and query", "https://mail.google.com/path?x=1", "google.com", true},
		{"scheme-less www host", "www.amazon.in", "amazon.in", true},
		{"multi-label suffix", "http://shop.example.co.uk/basket", "example.co.uk", true},
		{"port and userinfo", "http://user@login.example.com:8443/", "example.com", true},
		{"uppercase host", "HTTPS://WWW.Example.COM", "example.com", true},
		{"unlisted tld", "evil-domain.test", "evil-domain.test", true},
		{"trailing dot", "example.org.", "example.org", true},
		{"not a domain", "not a domain", "", false},
		{"empty", "", "", false},
		{"single label", "localhost", "", false},
		{"ipv4 address", "http://192.168.0.1/login", "", false},
		{"bare public suffix", "co.uk", "", false},
		{"numeric tld", "host.123", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RootDomain(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "evil-domain.test", SenderDomain("a@evil-domain.test"))
	assert.Equal(t, "mail.example.com", SenderDomain(`"Alice" <Alice@Mail.Example.com>`))
	assert.Equal(t, "", SenderDomain("no address here"))
}

func TestBodyDomains(t *testing.T) {
	body := "Visit https://mail.google.com/inbox, or www.amazon.in/deals. " +
		"Also http://evil-domain.test) and https://accounts.google.com/signin"

	assert.Equal(t, []string{"amazon.in", "evil-domain.test", "google.com"}, BodyDomains(body))
	assert.Empty(t, BodyDomains("nothing to see"))
}

func TestExtractHosts(t *testing.T) {
	hosts := ExtractHosts("a@evil-domain.test", "see http://evil-domain.test and https://www.paypal.com")
	assert.Equal(t, []string{"evil-domain.test", "paypal.com"}, hosts)

	assert.Empty(t, ExtractHosts("", ""))
	assert.Equal(t, []string{"example.com"}, ExtractHosts("bob@example.com", "no links"))
}
