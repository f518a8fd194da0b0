package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace collapse", "Hello   World\n\tAgain  ", "hello world again"},
		{"url", "Visit https://example.com/login now", "visit <url> now"},
		{"www url", "Go to www.example.com today", "go to <url> today"},
		{"email", "Contact bob@example.com today", "contact <email> today"},
		{"phone", "Call +1 555-123-4567 now", "call <phone> now"},
		{"image", "See [image: logo.png] below", "see <image> below"},
		{"html tags and entities", "<p>Hello&nbsp;<b>there</b></p>", "hello there"},
		{"unclosed angle bracket", "Tom &amp; Jerry &lt;3", "tom & jerry <3"},
		{"mojibake", "Itâ\u0080\u0099s great â\u0080\u0094 really", "it's great - really"},
		{"bom", "\ufeffSubject line", "subject line"},
		{"from marker", "See you soon\n\nFrom: Alice <alice@example.com>\nSent: Monday", "see you soon"},
		{"first marker in list wins", "Thanks!\n---------- Forwarded message ---------\nFrom: x", "thanks! ----------"},
		{"link inside anchor", `Click <a href="x">here</a>: https://evil.test/login`, "click here : <url>"},
		{"invalid utf8", "caf\xff\xfe bar", "caf bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}

func TestNormalizeMarkupSplitTokens(t *testing.T) {
	assert.Equal(t, "call <phone> now", Normalize("Call 1234<b>567</b>8 now"))
	assert.Equal(t, "visit x", Normalize("Visit &amp;lt;b&amp;gt;x"))
	assert.Equal(t, "fish & chips", Normalize("fish &amp;amp; chips"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"URGENT!!! Verify your account at http://secure-login.example.com/verify?id=1",
		"Hi Bob,\nplease call me on 0044 20 7946 0958 or mail carol@example.org.\nThanks",
		"<html><body><p>Dear customer,</p><p>Your <b>password</b> expires</p>[image: banner]</body></html>",
		"Quarterly report attached &mdash; see www.example.com/q3\n-----Original-----\nFrom: someone",
		"already normalized <url> text with <email> and <phone> tokens <image>",
		"Call 1234<b>567</b>8 now",
		"Visit &amp;lt;b&amp;gt;x",
		"write to bob<i>@example.org</i> today",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
