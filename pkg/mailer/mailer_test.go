package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartReminderMessage(t *testing.T) {
	data := CartReminder{
		Name:     "Ada",
		Lines:    []Line{{Title: "Levi's <501>", Quantity: 2, Price: 45}},
		Total:    90,
		CartURL:  "https://shop.example/cart",
		Currency: "INR",
	}

	msg, err := CartReminderMessage("ada@example.com", 1, data)
	require.NoError(t, err)
	assert.Equal(t, "You left 2 item(s) in your cart", msg.Subject)
	assert.Contains(t, msg.PlainText, "Levi's <501> x2 (INR 45.00)")
	assert.Contains(t, msg.PlainText, "Total: INR 90.00")
	assert.Contains(t, msg.HTML, "Levi&#39;s &lt;501&gt;")
	assert.Contains(t, msg.HTML, `href="https://shop.example/cart"`)

	msg, err = CartReminderMessage("ada@example.com", 3, data)
	require.NoError(t, err)
	assert.Equal(t, "Last chance! Your cart items might sell out", msg.Subject)

	_, err = CartReminderMessage("ada@example.com", 4, data)
	assert.Error(t, err)
}

func TestOrderReceiptMessage(t *testing.T) {
	msg, err := OrderReceiptMessage("ada@example.com", OrderReceipt{
		Name: "Ada", OrderNumber: "ORD-1", Subtotal: 45, ShippingCost: 40, Total: 85, Currency: "INR",
		Lines: []Line{{Title: "Jacket", Quantity: 1, Price: 45}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Order ORD-1 confirmed", msg.Subject)
	assert.Contains(t, msg.PlainText, "Shipping: INR 40.00")
	assert.Contains(t, msg.HTML, "<strong>ORD-1</strong>")
}

func TestSendGridAndLogMailerValidation(t *testing.T) {
	_, err := NewSendGrid("", "shop@example.com", "Shop")
	assert.Error(t, err)
	_, err = NewSendGrid("key", "", "Shop")
	assert.Error(t, err)

	sg, err := NewSendGrid("key", "shop@example.com", "Shop")
	require.NoError(t, err)
	assert.ErrorIs(t, sg.Send(context.Background(), Message{Subject: "hi"}), ErrInvalidMessage)

	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{ToEmail: "a@example.com", Subject: "hi"}))
	assert.ErrorIs(t, LogMailer{}.Send(context.Background(), Message{ToEmail: "a@example.com"}), ErrInvalidMessage)
}
