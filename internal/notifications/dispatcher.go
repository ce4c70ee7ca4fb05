// Package notifications packages resolved payslips as transactional
// emails and hands them to the configured mail transport.
package notifications

import (
	"context"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/icnsas/payslip-vault/internal/pkg/ctxlog"
)

// Attachment is a named file attached to an outbound message.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message is the transport-level email envelope.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers a composed message. Transport errors come back as-is;
// the dispatcher wraps them.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher composes payslip delivery emails.
type Dispatcher struct {
	sender      Sender
	fromAddress string
	titler      cases.Caser
}

// NewDispatcher creates a dispatcher sending from the given address.
func NewDispatcher(sender Sender, fromAddress string) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		fromAddress: fromAddress,
		titler:      cases.Title(language.Spanish),
	}
}

// SendPayslip emails the payslip as a PDF attachment named
// "{cc} {name}.pdf". Any transport failure is reported as a
// DeliveryError carrying the recipient; it is never a resolution
// failure.
func (d *Dispatcher) SendPayslip(ctx context.Context, payslip *domain.Payslip, to string) error {
	owner := payslip.Owner
	if owner == nil {
		return fmt.Errorf("payslip %s has no owner loaded", payslip.ID)
	}

	msg := Message{
		From:    d.fromAddress,
		To:      to,
		Subject: fmt.Sprintf("Desprendible de nomina %s/%s", d.titler.String(payslip.Mount), payslip.Year),
		Body:    "Please find the document attached",
		Attachments: []Attachment{
			{
				Filename:    fmt.Sprintf("%s %s.pdf", owner.NationalID, owner.Name),
				Content:     payslip.Data,
				ContentType: "application/pdf",
			},
		},
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		ctxlog.FromContext(ctx).Error("failed to send payslip email",
			"payslip_id", payslip.ID,
			"error", err,
		)
		return &DeliveryError{To: to, Err: err}
	}

	return nil
}
