package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const ConfirmationSubject = "Confirm your email address"

var confirmationTmpl = template.Must(template.New("confirm").Parse(`<h1>Confirm your email address</h1>
<p>Please confirm your email address by clicking on the link below:</p>

<a href="{{.Link}}">{{.Link}}</a>

<p>Then you will be able to start using the application</p>

<p>~Dave</p>`))

// ConfirmationMessage renders the email-confirmation message for link.
func ConfirmationMessage(to, link string) (Message, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, struct{ Link string }{link}); err != nil {
		return Message{}, fmt.Errorf("render confirmation email: %w", err)
	}
	return Message{
		To:      to,
		Subject: ConfirmationSubject,
		HTML:    buf.String(),
	}, nil
}
