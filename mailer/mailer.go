// Package mailer sends the low-stock alert email with the reorder
// summary attached.
package mailer

import (
	"bytes"
	"fmt"
	"io"

	"jewelstock/report"
	"jewelstock/services"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host       string
	Port       int
	Sender     string
	Password   string
	Recipients []string
}

func New(host string, port int, sender, password string, recipients []string) *Mailer {
	return &Mailer{Host: host, Port: port, Sender: sender, Password: password, Recipients: recipients}
}

// SendReorderAlert mails the current reorder rows to the configured
// recipients, spreadsheet attached.
func (m *Mailer) SendReorderAlert(rows []services.ReorderRow) error {
	if len(m.Recipients) == 0 {
		return fmt.Errorf("no alert recipients configured")
	}

	f := report.BuildReorderWorkbook(rows)
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("build reorder workbook: %w", err)
	}

	subject := fmt.Sprintf("📦 Reorder needed: %d position(s) below threshold", len(rows))
	body := fmt.Sprintf(`
		<html>
			<body>
				<h3>Stock below threshold</h3>
				<p><strong>%d</strong> position(s) need reordering. The full list is attached.</p>
				<p>This is an auto-generated email. Please do not reply to this email or its recipients.</p>
			</body>
		</html>
	`, len(rows))

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("To", m.Recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	msg.Attach("reorder.xlsx", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	}))

	dialer := gomail.NewDialer(m.Host, m.Port, m.Sender, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reorder alert: %w", err)
	}
	return nil
}
