package eml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartMessage = "From: Alice Example <alice@mail.example.com>\r\n" +
	"To: bob@example.org\r\n" +
	"Subject: Quarterly report\r\n" +
	"Message-ID: <abc123@mail.example.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please see https://reports.example.com/q3\r\n" +
	"--XYZ\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=\"report.bin\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"aGVsbG8=\r\n" +
	"--XYZ--\r\n"

const htmlOnlyMessage = "From: promo@evil-domain.test\r\n" +
	"Subject: You won\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><body><p>Claim your prize</p><a href=\"http://evil-domain.test/claim\">here</a></body></html>\r\n"

func TestParseMultipart(t *testing.T) {
	req, err := Parse(strings.NewReader(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "abc123@mail.example.com", req.MessageID)
	assert.Equal(t, "alice@mail.example.com", req.Sender)
	assert.Equal(t, "Quarterly report", req.Subject)
	assert.Contains(t, req.Body, "https://reports.example.com/q3")
	require.Len(t, req.Attachments, 1)
	assert.Equal(t, "report.bin", req.Attachments[0].Filename)
	assert.Equal(t, []byte("hello"), req.Attachments[0].Content)
}

func TestParseHTMLOnlyKeepsLinks(t *testing.T) {
	req, err := Parse(strings.NewReader(htmlOnlyMessage))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.MessageID, GeneratedIDPrefix))
	assert.Equal(t, "promo@evil-domain.test", req.Sender)
	assert.Contains(t, req.Body, "Claim your prize")
	assert.Contains(t, req.Body, "http://evil-domain.test/claim")
	assert.Empty(t, req.Attachments)
}
