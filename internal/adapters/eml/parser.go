package eml

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"
	"github.com/mikey/mailguard/internal/core"
)

// GeneratedIDPrefix starts message ids made up for messages without a Message-ID header
const GeneratedIDPrefix = "generated-"

// Parse reads an RFC 5322 message and builds an analysis request from it
func Parse(r io.Reader) (*core.AnalysisRequest, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	req := &core.AnalysisRequest{
		MessageID: messageID(env),
		Sender:    sender(env),
		Subject:   env.GetHeader("Subject"),
		Body:      body(env),
	}
	for _, part := range env.Attachments {
		req.Attachments = append(req.Attachments, core.Attachment{
			Filename: part.FileName,
			Content:  part.Content,
		})
	}
	return req, nil
}

func messageID(env *enmime.Envelope) string {
	id := strings.TrimSpace(env.GetHeader("Message-ID"))
	id = strings.TrimSuffix(strings.TrimPrefix(id, "<"), ">")
	if id == "" {
		return GeneratedIDPrefix + uuid.NewString()
	}
	return id
}

func sender(env *enmime.Envelope) string {
	addrs, err := env.AddressList("From")
	if err == nil && len(addrs) > 0 {
		return addrs[0].Address
	}
	return strings.TrimSpace(env.GetHeader("From"))
}

// body prefers the plain text part. HTML-only messages are converted with links kept inline.
func body(env *enmime.Envelope) string {
	if env.HTML == "" || hasTextPart(env) {
		return env.Text
	}
	text, err := html2text.FromString(env.HTML, html2text.Options{OmitLinks: false})
	if err != nil {
		return env.Text
	}
	return text
}

func hasTextPart(env *enmime.Envelope) bool {
	if env.Root == nil {
		return false
	}
	return env.Root.BreadthMatchFirst(func(p *enmime.Part) bool {
		return p.ContentType == "text/plain" && p.Disposition != "attachment"
	}) != nil
}
