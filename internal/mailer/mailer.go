package mailer

// Mailer delivers outbound mail. Delivery is best-effort everywhere it is
// used: callers log failures and move on.
type Mailer interface {
	// Send delivers a plain-text email, optionally with a PDF attachment
	// named "bill.pdf".
	Send(to, subject, body string, attachment []byte) error
	// SendHTML delivers an HTML-bodied email without attachment.
	SendHTML(to, subject, html string) error
}
