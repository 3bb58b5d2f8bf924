package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"petshop-backend/internal/bookings"
)

const bookingDetailsPartial = `{{define "details"}}
  <ul>
    <li>Serviço: {{.ServiceName}}</li>
    <li>Pet: {{.PetName}}</li>
    <li>Data: {{.Date}}</li>
    <li>Horário: {{.Time}}</li>
    <li>Duração: {{.Duration}} minutos</li>
    <li>Valor: {{.Price}}</li>
    <li>Pagamento: {{.PaymentLabel}}</li>
    <li>Código do agendamento: {{.BookingID}}</li>
  </ul>
{{end}}`

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Olá {{.Name}},</p>
  <p>Recebemos o agendamento do seu pet. Status atual: <strong>{{.StatusLabel}}</strong>.</p>
  {{template "details" .}}
  <p>Se precisar remarcar, cancele pelo site e escolha um novo horário.</p>
  <p>Obrigado!</p>
</body>
</html>`

const bookingReminderTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Olá {{.Name}},</p>
  <p>Passando para lembrar do atendimento de amanhã.</p>
  {{template "details" .}}
  <p>Chegue com 10 minutos de antecedência.</p>
</body>
</html>`

var (
	bookingConfirmationTmpl = template.Must(template.Must(template.New("booking_confirmation").Parse(bookingDetailsPartial)).Parse(bookingConfirmationTemplate))
	bookingReminderTmpl     = template.Must(template.Must(template.New("booking_reminder").Parse(bookingDetailsPartial)).Parse(bookingReminderTemplate))
)

type bookingEmailData struct {
	Name         string
	ServiceName  string
	PetName      string
	Date         string
	Time         string
	Duration     int
	Price        string
	PaymentLabel string
	StatusLabel  string
	BookingID    string
}

func buildBookingEmailHTML(tmpl *template.Template, b bookings.Booking) (string, error) {
	name := strings.TrimSpace(b.CustomerName)
	if name == "" {
		name = "cliente"
	}
	data := bookingEmailData{
		Name:         name,
		ServiceName:  b.ServiceName,
		PetName:      b.PetName,
		Date:         formatDate(b.Date),
		Time:         b.Time,
		Duration:     b.Duration,
		Price:        formatPrice(b.ServicePrice),
		PaymentLabel: paymentMethodLabel(b.PaymentMethod),
		StatusLabel:  statusLabel(b.Status),
		BookingID:    b.ID,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatDate turns YYYY-MM-DD into DD/MM/YYYY; anything else is returned unchanged.
func formatDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return date
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

func formatPrice(value float64) string {
	return "R$ " + strings.Replace(fmt.Sprintf("%.2f", value), ".", ",", 1)
}

func paymentMethodLabel(value bookings.PaymentMethod) string {
	switch value {
	case bookings.PaymentLuckCoins:
		return "LuckCoins"
	case bookings.PaymentPix:
		return "Pix"
	case bookings.PaymentCreditCard:
		return "Cartão de crédito"
	case bookings.PaymentDebitCard:
		return "Cartão de débito"
	case bookings.PaymentMoney:
		return "Dinheiro"
	default:
		return string(value)
	}
}

func statusLabel(value bookings.Status) string {
	switch value {
	case bookings.StatusPending:
		return "Aguardando confirmação"
	case bookings.StatusConfirmed:
		return "Confirmado"
	case bookings.StatusCompleted:
		return "Concluído"
	case bookings.StatusCancelled:
		return "Cancelado"
	default:
		return string(value)
	}
}
