package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/modmark-app/modmark/internal/apperr"
)

type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) Mailer {
	return &sendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail(msg.ToName, msg.To)
	message := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, "")
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return apperr.Upstream(err, "sendgrid send")
	}
	if resp.StatusCode >= 300 {
		return apperr.Upstream(fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body), "sendgrid send")
	}
	return nil
}
