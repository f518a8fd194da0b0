// Package domains resolves the registrable root domains referenced by a message.
package domains

import (
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	bodyURLRe    = regexp.MustCompile(`(?i)https?://[^\s<>"']+|www\.[^\s<>"']+`)
	senderHostRe = regexp.MustCompile(`@([A-Za-z0-9.\-]+)`)
	labelRe      = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
)

// trailingPunct is stripped from URL matches found in running text.
const trailingPunct = ".,;:!?)]}'\""

// SenderDomain returns the lowercased host part of a sender address, or "" if the sender
// carries no address.
func SenderDomain(sender string) string {
	m := senderHostRe.FindStringSubmatch(sender)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.ToLower(m[1]), ".")
}

// BodyDomains returns the sorted root domains of every URL found in body.
func BodyDomains(body string) []string {
	set := make(map[string]struct{})
	for _, match := range bodyURLRe.FindAllString(body, -1) {
		if root, ok := RootDomain(strings.TrimRight(match, trailingPunct)); ok {
			set[root] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// ExtractHosts returns the sorted union of the sender's root domain and all body root
// domains.
func ExtractHosts(sender, body string) []string {
	set := make(map[string]struct{})
	if host := SenderDomain(sender); host != "" {
		if root, ok := RootDomain(host); ok {
			set[root] = struct{}{}
		}
	}
	for _, root := range BodyDomains(body) {
		set[root] = struct{}{}
	}
	return sortedKeys(set)
}

// RootDomain reduces a URL or hostname to its registrable domain (eTLD+1). It reports
// false for values that have no registrable domain, such as IP addresses, single labels
// or text that is not a hostname.
func RootDomain(value string) (string, bool) {
	host := hostOf(strings.TrimSpace(value))
	host = strings.Trim(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || !strings.Contains(ascii, ".") {
		return "", false
	}
	labels := strings.Split(ascii, ".")
	for _, label := range labels {
		if !labelRe.MatchString(label) {
			return "", false
		}
	}
	if !strings.ContainsAny(labels[len(labels)-1], "abcdefghijklmnopqrstuvwxyz") {
		return "", false
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return "", false
	}
	return root, true
}

// hostOf extracts the host part of a URL, a scheme-less URL or a bare hostname.
func hostOf(value string) string {
	if value == "" {
		return ""
	}
	raw := value
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Hostname()
	}

	// url.Parse rejects hosts with spaces and similar; cut manually and let the label
	// check decide.
	if i := strings.Index(value, "://"); i >= 0 {
		value = value[i+3:]
	}
	if i := strings.IndexAny(value, "/?#"); i >= 0 {
		value = value[:i]
	}
	if i := strings.LastIndex(value, "@"); i >= 0 {
		value = value[i+1:]
	}
	if h, _, err := net.SplitHostPort(value); err == nil {
		value = h
	}
	return value
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
