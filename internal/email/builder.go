package email

import (
	"fmt"
	"mime"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageBuilder builds MIME-formatted email messages
type MessageBuilder struct {
	from     string
	to       string
	subject  string
	textBody string
	htmlBody string
	date     time.Time
	headers  map[string]string
	boundary string
}

// NewMessageBuilder creates a new message builder
func NewMessageBuilder() *MessageBuilder {
	now := time.Now()
	return &MessageBuilder{
		headers:  make(map[string]string),
		date:     now,
		boundary: fmt.Sprintf("boundary-%d", now.UnixNano()),
	}
}

// FromEmail populates the builder from an Email
func (b *MessageBuilder) FromEmail(e Email) *MessageBuilder {
	return b.From(e.From).To(e.To).Subject(e.Subject).TextBody(e.Body).HTMLBody(e.HTMLBody)
}

// From sets the sender address
func (b *MessageBuilder) From(address string) *MessageBuilder {
	b.from = address
	return b
}

// To sets the recipient address
func (b *MessageBuilder) To(address string) *MessageBuilder {
	b.to = address
	return b
}

// Subject sets the email subject
func (b *MessageBuilder) Subject(subject string) *MessageBuilder {
	b.subject = subject
	return b
}

// TextBody sets the plain text body
func (b *MessageBuilder) TextBody(body string) *MessageBuilder {
	b.textBody = body
	return b
}

// HTMLBody sets the HTML body
func (b *MessageBuilder) HTMLBody(body string) *MessageBuilder {
	b.htmlBody = body
	return b
}

// Date overrides the Date header
func (b *MessageBuilder) Date(t time.Time) *MessageBuilder {
	b.date = t
	return b
}

// Header adds a custom header
func (b *MessageBuilder) Header(key, value string) *MessageBuilder {
	b.headers[key] = value
	return b
}

// Build constructs the MIME message
func (b *MessageBuilder) Build() string {
	var message strings.Builder

	b.writeHeader(&message, "From", b.from)
	b.writeHeader(&message, "To", b.to)
	b.writeHeader(&message, "Subject", mime.QEncoding.Encode("utf-8", b.subject))
	b.writeHeader(&message, "Date", b.date.Format(time.RFC1123Z))
	b.writeHeader(&message, "Message-ID", b.messageID())
	b.writeHeader(&message, "MIME-Version", "1.0")

	keys := make([]string, 0, len(b.headers))
	for key := range b.headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.writeHeader(&message, key, b.headers[key])
	}

	if b.htmlBody != "" {
		b.writeMultipartMessage(&message)
	} else {
		b.writePlainMessage(&message)
	}

	return message.String()
}

// messageID is unique per build and uses the sender's domain when it has one
func (b *MessageBuilder) messageID() string {
	domain := "localhost"
	if addr := AddressOnly(b.from); strings.Contains(addr, "@") {
		domain = addr[strings.LastIndex(addr, "@")+1:]
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

func (b *MessageBuilder) writeHeader(w *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(w, "%s: %s\r\n", key, value)
	}
}

func (b *MessageBuilder) writePlainMessage(w *strings.Builder) {
	w.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	w.WriteString("\r\n")
	w.WriteString(normalizeNewlines(b.textBody))
}

func (b *MessageBuilder) writeMultipartMessage(w *strings.Builder) {
	fmt.Fprintf(w, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", b.boundary)
	w.WriteString("\r\n")

	fmt.Fprintf(w, "--%s\r\n", b.boundary)
	w.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	w.WriteString("\r\n")
	w.WriteString(normalizeNewlines(b.textBody))
	w.WriteString("\r\n")

	fmt.Fprintf(w, "--%s\r\n", b.boundary)
	w.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	w.WriteString("\r\n")
	w.WriteString(normalizeNewlines(b.htmlBody))
	w.WriteString("\r\n")

	fmt.Fprintf(w, "--%s--\r\n", b.boundary)
}

// normalizeNewlines converts bare LF line endings to CRLF
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// FormatAddress formats an email address with optional name
func FormatAddress(email, name string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

func mailAddress(address string) (*mail.Address, error) {
	return mail.ParseAddress(address)
}

// AddressOnly returns the bare address of a possibly named address
func AddressOnly(address string) string {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return address
	}
	return parsed.Address
}

// ValidateAddress reports whether address parses as an RFC 5322 address
func ValidateAddress(address string) error {
	if _, err := mailAddress(address); err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	return nil
}
