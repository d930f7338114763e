// Package mailer sends broadcast email with attachments over SMTP.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"

	"github.com/GoUserDesk/GoUserDesk/internal/config"
)

// maxAttachmentSize caps a single decoded attachment at 5 MiB.
const maxAttachmentSize = 5 * 1024 * 1024

const defaultContentType = "application/octet-stream"

var (
	// ErrNoRecipients indicates the message has no valid recipients.
	ErrNoRecipients = errors.New("message has no recipients")
	// ErrAttachmentTooLarge indicates a decoded attachment exceeds the size limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum size")
	// ErrInvalidAttachment indicates attachment content is not valid base64.
	ErrInvalidAttachment = errors.New("attachment content is not valid base64")
)

// Attachment is one file to attach, with base64-encoded content.
// Entries without a filename or content are dropped before sending.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Type     string `json:"type"`
}

// Message is one outgoing email.
type Message struct {
	To          []string
	Subject     string
	Text        string
	Attachments []Attachment
}

// Mailer sends messages through a configured SMTP server.
type Mailer struct {
	cfg    config.Mailer
	client *mail.Client
}

// New creates a mailer from the SMTP settings.
func New(cfg config.Mailer) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &Mailer{cfg: cfg, client: client}, nil
}

// Send delivers the message and returns its message id.
func (m *Mailer) Send(ctx context.Context, msg *Message) (string, error) {
	out, messageID, err := m.build(msg)
	if err != nil {
		return "", err
	}

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return "", errors.Wrap(err, "failed to send message")
	}

	log.Info().Str("message_id", messageID).Int("recipients", len(msg.To)).
		Msg("email sent")

	return messageID, nil
}

// SendSimple delivers a plain message without attachments to a single
// recipient.
func (m *Mailer) SendSimple(ctx context.Context, to, subject, text string) (string, error) {
	return m.Send(ctx, &Message{To: []string{to}, Subject: subject, Text: text})
}

// build assembles the wire message: plain text body, an HTML alternative
// with newlines turned into line breaks, and the filtered attachments.
func (m *Mailer) build(msg *Message) (*mail.Msg, string, error) {
	if len(msg.To) == 0 {
		return nil, "", ErrNoRecipients
	}

	out := mail.NewMsg()

	if err := out.From(m.cfg.From); err != nil {
		return nil, "", errors.Wrap(err, "invalid sender address")
	}

	if err := out.To(msg.To...); err != nil {
		return nil, "", errors.Wrap(err, "invalid recipient address")
	}

	messageID := uuid.NewString()
	out.SetMessageIDWithValue(messageID)

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	out.AddAlternativeString(mail.TypeTextHTML, TextToHTML(msg.Text))

	for _, att := range FilterAttachments(msg.Attachments) {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, "", ErrInvalidAttachment
		}

		if len(data) > maxAttachmentSize {
			return nil, "", ErrAttachmentTooLarge
		}

		contentType := att.Type
		if contentType == "" {
			contentType = defaultContentType
		}

		err = out.AttachReader(att.Filename, bytes.NewReader(data),
			mail.WithFileContentType(mail.ContentType(contentType)))
		if err != nil {
			return nil, "", errors.Wrap(err, "failed to attach file")
		}
	}

	return out, messageID, nil
}

// FilterAttachments drops entries that carry no filename or no content.
func FilterAttachments(in []Attachment) []Attachment {
	out := make([]Attachment, 0, len(in))

	for _, att := range in {
		if att.Filename == "" || att.Content == "" {
			continue
		}

		out = append(out, att)
	}

	return out
}

// TextToHTML renders the plain text body as HTML by turning newlines
// into line breaks.
func TextToHTML(text string) string {
	return strings.ReplaceAll(text, "\n", "<br>")
}
