// Package mailer sends the account confirmation email over SMTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers confirmation mail through a single SMTP account.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New builds a Mailer. Implicit TLS is used when the port is 465, which is
// the default for most transactional SMTP providers.
func New(host string, port int, user, pass, from string) *Mailer {
	d := gomail.NewDialer(host, port, user, pass)
	d.SSL = port == 465
	return &Mailer{dialer: d, from: from}
}

// SendConfirmation emails the verification link for the given token.
func (m *Mailer) SendConfirmation(to, username, baseURL, token string) error {
	link := fmt.Sprintf("%s/auth/confirmed_email/%s", baseURL, token)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Confirm your email")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Welcome to Contacts App. Please confirm your email address by following this link:</p>
<p><a href=%q>%s</a></p>
<p>If you did not sign up, you can ignore this message.</p>`,
		username, link, link))

	return m.dialer.DialAndSend(msg)
}
