package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Line is one item listed in a mail.
type Line struct {
	Title    string
	Quantity int
	Price    float64
}

type CartReminder struct {
	Name     string
	Lines    []Line
	Total    float64
	CartURL  string
	Currency string
}

type OrderReceipt struct {
	Name         string
	OrderNumber  string
	Lines        []Line
	Subtotal     float64
	ShippingCost float64
	Total        float64
	Currency     string
}

var funcs = map[string]interface{}{
	"money": func(currency string, v float64) string { return fmt.Sprintf("%s %.2f", currency, v) },
}

const reminderText = `Hi {{.Name}},

You left these in your cart:
{{range .Lines}}- {{.Title}} x{{.Quantity}} ({{money $.Currency .Price}})
{{end}}
Total: {{money .Currency .Total}}

Vintage pieces are one of a kind. Finish checking out: {{.CartURL}}
`

const reminderHTML = `<p>Hi {{.Name}},</p>
<p>You left these in your cart:</p>
<ul>{{range .Lines}}<li>{{.Title}} &times;{{.Quantity}} ({{money $.Currency .Price}})</li>{{end}}</ul>
<p><strong>Total: {{money .Currency .Total}}</strong></p>
<p><a href="{{.CartURL}}">Return to your cart</a></p>`

const receiptText = `Hi {{.Name}},

Thanks for your order {{.OrderNumber}}.
{{range .Lines}}- {{.Title}} x{{.Quantity}} ({{money $.Currency .Price}})
{{end}}
Subtotal: {{money .Currency .Subtotal}}
Shipping: {{money .Currency .ShippingCost}}
Total: {{money .Currency .Total}}
`

const receiptHTML = `<p>Hi {{.Name}},</p>
<p>Thanks for your order <strong>{{.OrderNumber}}</strong>.</p>
<ul>{{range .Lines}}<li>{{.Title}} &times;{{.Quantity}} ({{money $.Currency .Price}})</li>{{end}}</ul>
<p>Subtotal: {{money .Currency .Subtotal}}<br>Shipping: {{money .Currency .ShippingCost}}<br><strong>Total: {{money .Currency .Total}}</strong></p>`

var (
	reminderTextTmpl = texttemplate.Must(texttemplate.New("reminder").Funcs(funcs).Parse(reminderText))
	reminderHTMLTmpl = htmltemplate.Must(htmltemplate.New("reminder").Funcs(funcs).Parse(reminderHTML))
	receiptTextTmpl  = texttemplate.Must(texttemplate.New("receipt").Funcs(funcs).Parse(receiptText))
	receiptHTMLTmpl  = htmltemplate.Must(htmltemplate.New("receipt").Funcs(funcs).Parse(receiptHTML))
)

func render(text *texttemplate.Template, html *htmltemplate.Template, data interface{}) (string, string, error) {
	var plain, rich bytes.Buffer
	if err := text.Execute(&plain, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&rich, data); err != nil {
		return "", "", err
	}
	return plain.String(), rich.String(), nil
}

// Reminder subjects by stage: one hour, one day, three days.
var reminderSubjects = []string{
	"You left %d item(s) in your cart",
	"Still thinking about your vintage finds?",
	"Last chance! Your cart items might sell out",
}

// CartReminderMessage builds the abandoned cart mail for stage 1..3.
func CartReminderMessage(toEmail string, stage int, data CartReminder) (Message, error) {
	if stage < 1 || stage > len(reminderSubjects) {
		return Message{}, fmt.Errorf("unknown reminder stage %d", stage)
	}
	subject := reminderSubjects[stage-1]
	if strings.Contains(subject, "%d") {
		count := 0
		for _, l := range data.Lines {
			count += l.Quantity
		}
		subject = fmt.Sprintf(subject, count)
	}

	plain, html, err := render(reminderTextTmpl, reminderHTMLTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{ToName: data.Name, ToEmail: toEmail, Subject: subject, PlainText: plain, HTML: html}, nil
}

func OrderReceiptMessage(toEmail string, data OrderReceipt) (Message, error) {
	plain, html, err := render(receiptTextTmpl, receiptHTMLTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		ToName:    data.Name,
		ToEmail:   toEmail,
		Subject:   fmt.Sprintf("Order %s confirmed", data.OrderNumber),
		PlainText: plain,
		HTML:      html,
	}, nil
}
