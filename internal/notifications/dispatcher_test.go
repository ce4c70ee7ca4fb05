package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/icnsas/payslip-vault/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	sent    []Message
	sendErr error
}

func (m *mockSender) Send(_ context.Context, msg Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func testPayslip() *domain.Payslip {
	return &domain.Payslip{
		ID:    "ps-1",
		Mount: "enero",
		Year:  "2024",
		Data:  []byte("%PDF-1.4 content"),
		Owner: &domain.User{
			NationalID: "100",
			Name:       "Ana Gomez",
			Email:      "ana@example.com",
		},
	}
}

func TestSendPayslip_ComposesMessage(t *testing.T) {
	sender := &mockSender{}
	dispatcher := NewDispatcher(sender, "payroll@example.com")

	err := dispatcher.SendPayslip(context.Background(), testPayslip(), "ana@example.com")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "payroll@example.com", msg.From)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, "Desprendible de nomina Enero/2024", msg.Subject)
	assert.Equal(t, "Please find the document attached", msg.Body)

	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "100 Ana Gomez.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4 content"), msg.Attachments[0].Content)
}

func TestSendPayslip_AlternateRecipient(t *testing.T) {
	sender := &mockSender{}
	dispatcher := NewDispatcher(sender, "payroll@example.com")

	err := dispatcher.SendPayslip(context.Background(), testPayslip(), "manager@example.com")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	// Recipient can differ from the owner; the attachment still names the owner.
	assert.Equal(t, "manager@example.com", sender.sent[0].To)
	assert.Equal(t, "100 Ana Gomez.pdf", sender.sent[0].Attachments[0].Filename)
}

func TestSendPayslip_TransportError(t *testing.T) {
	sender := &mockSender{sendErr: errors.New("connection refused")}
	dispatcher := NewDispatcher(sender, "payroll@example.com")

	err := dispatcher.SendPayslip(context.Background(), testPayslip(), "ana@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	var deliveryErr *DeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "ana@example.com", deliveryErr.To)
	assert.Contains(t, deliveryErr.Error(), "connection refused")
}

func TestSendPayslip_MissingOwner(t *testing.T) {
	sender := &mockSender{}
	dispatcher := NewDispatcher(sender, "payroll@example.com")

	payslip := testPayslip()
	payslip.Owner = nil

	err := dispatcher.SendPayslip(context.Background(), payslip, "ana@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeliveryFailed)
	assert.Empty(t, sender.sent)
}
