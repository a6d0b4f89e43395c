package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
)

// Mailer sends notification mail with the artifact attached. One shot, no
// retries.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
}

// NewMailer builds a mailer. Returns nil when credentials are absent so
// callers can treat delivery as unconfigured.
func NewMailer(host string, port int, user, password string) *Mailer {
	if user == "" || password == "" {
		return nil
	}
	return &Mailer{host: host, port: port, user: user, password: password}
}

// Send delivers one message with the given file attached.
func (m *Mailer) Send(ctx context.Context, to, subject, body, attachmentPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := os.ReadFile(attachmentPath)
	if err != nil {
		return fmt.Errorf("read attachment: %w", err)
	}

	var msg bytes.Buffer
	writer := multipart.NewWriter(&msg)
	fmt.Fprintf(&msg, "From: %s\r\n", m.user)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	text, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return err
	}

	attachment, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filepath.Base(attachmentPath))},
	})
	if err != nil {
		return err
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(encoded, payload)
	if _, err := attachment.Write(encoded); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.user, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
