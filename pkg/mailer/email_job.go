package mailer

import (
	"errors"
	"strings"

	"github.com/oksasatya/cosmebag/pkg/mailer/templates"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (rendered by the worker from Data) or Subject with Text/HTML is set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "confirm_email", "welcome"
	Data     map[string]any `json:"data,omitempty"`
}

var ErrInvalidJob = errors.New("email job needs a recipient and a template or subject with a body")

// Resolve renders the template when present and returns the final subject and bodies.
func (j EmailJob) Resolve() (subject, text, html string, err error) {
	if strings.TrimSpace(j.To) == "" {
		return "", "", "", ErrInvalidJob
	}
	if j.Template != "" {
		return templates.Render(j.Template, j.Data)
	}
	if j.Subject == "" || (j.Text == "" && j.HTML == "") {
		return "", "", "", ErrInvalidJob
	}
	return j.Subject, j.Text, j.HTML, nil
}
