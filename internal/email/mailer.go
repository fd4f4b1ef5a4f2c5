// Package email sends transactional mail for invite and verification flows.
package email

import (
	"context"
	"fmt"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Mailer is any service that can deliver a message. Send returns an error so
// callers can distinguish "state committed but mail not delivered" from
// success and surface it instead of silently reporting success.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the email carrying a signup / password-reset code.
func VerificationMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Your verification code",
		Text: fmt.Sprintf(
			"Your verification code is %s.\n\nIt expires in 10 minutes. If you did not request it, ignore this email.\n",
			code),
	}
}

// InviteMessage builds the email inviting someone to join a marking team.
func InviteMessage(to, teamName, inviterEmail, link string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Invitation to join %s", teamName),
		Text: fmt.Sprintf(
			"%s invited you to join the marking team %q.\n\nOpen the link below to accept or decline:\n%s\n",
			inviterEmail, teamName, link),
	}
}
