package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

const (
	SubjectReminder     = "Recordatorio de Cita"
	SubjectConfirmed    = "Confirmación de Turno"
	SubjectCancelled    = "Cancelación de Turno"
	SubjectRescheduled  = "Reprogramación de Turno"
	SubjectPasswordSent = "Restablecimiento de contraseña"
	SubjectSupport      = "Nueva solicitud de soporte"
)

// Response actions used in the reminder links.
const (
	ActionConfirm    = "confirm"
	ActionCancel     = "cancel"
	ActionReschedule = "reschedule"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "reminder"}}<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background-color: #f9f9f9;">
    <h2 style="color: #2c3e50;">Recordatorio de Cita</h2>
    <p>Hola {{.PatientName}},</p>
    <p>Le recordamos que tiene un turno el <strong>{{.Date}}</strong> a las <strong>{{.Time}}</strong> con el Dr. <strong>{{.DentistName}}</strong>.</p>
    <p>Por favor seleccione una de las siguientes opciones:</p>
    <div style="margin: 20px 0;">
      <a href="{{.ConfirmURL}}" style="display: inline-block; padding: 10px 20px; margin: 0 5px; text-decoration: none; color: #fff; background-color: #27ae60; border-radius: 5px; font-weight: bold;">Confirmar</a>
      <a href="{{.CancelURL}}" style="display: inline-block; padding: 10px 20px; margin: 0 5px; text-decoration: none; color: #fff; background-color: #e74c3c; border-radius: 5px; font-weight: bold;">Cancelar</a>
      <a href="{{.RescheduleURL}}" style="display: inline-block; padding: 10px 20px; margin: 0 5px; text-decoration: none; color: #fff; background-color: #3498db; border-radius: 5px; font-weight: bold;">Reprogramar</a>
    </div>
    <p>Si tiene alguna pregunta, no dude en contactarnos.</p>
    <p>Gracias,</p>
    <p>El equipo de {{.ClinicName}}</p>
  </div>
</body>
</html>{{end}}

{{define "response"}}<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>{{.Text}}</p>
</body>
</html>{{end}}

{{define "password"}}<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <p>Hola {{.Name}},</p>
  <p>Tu nueva contraseña es: <strong>{{.Password}}</strong></p>
  <p>Te recomendamos cambiarla después de iniciar sesión.</p>
</body>
</html>{{end}}

{{define "support"}}<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h3>Solicitud de soporte #{{.ID}}</h3>
  <p><strong>Nombre:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  {{if .Phone}}<p><strong>Teléfono:</strong> {{.Phone}}</p>{{end}}
  <p>{{.Body}}</p>
  {{if .Images}}<p>{{len .Images}} imagen(es) adjunta(s).</p>{{end}}
</body>
</html>{{end}}
`))

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

// ReminderEmail carries what the reminder email shows. Date and Time are
// already formatted for display.
type ReminderEmail struct {
	To            string
	AppointmentID uint
	PatientName   string
	DentistName   string
	ClinicName    string
	Date          string
	Time          string
	ServerURL     string
}

// ActionURL builds the public link that answers a reminder.
func ActionURL(serverURL, action string, appointmentID uint) string {
	return fmt.Sprintf("%s/api/appointments/%s/%d", strings.TrimRight(serverURL, "/"), action, appointmentID)
}

func (r ReminderEmail) Message() (Message, error) {
	body, err := render("reminder", struct {
		ReminderEmail
		ConfirmURL, CancelURL, RescheduleURL string
	}{
		ReminderEmail: r,
		ConfirmURL:    ActionURL(r.ServerURL, ActionConfirm, r.AppointmentID),
		CancelURL:     ActionURL(r.ServerURL, ActionCancel, r.AppointmentID),
		RescheduleURL: ActionURL(r.ServerURL, ActionReschedule, r.AppointmentID),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: r.To, Subject: SubjectReminder, HTML: body}, nil
}

// ResponseEmail builds the notice sent after a patient answers a reminder.
func ResponseEmail(to, action, patientName, dentistName string) (Message, error) {
	var subject, text string
	switch action {
	case ActionConfirm:
		subject = SubjectConfirmed
		text = fmt.Sprintf("Hola %s, tu turno con el Dr. %s ha sido confirmado.", patientName, dentistName)
	case ActionCancel:
		subject = SubjectCancelled
		text = fmt.Sprintf("Hola %s, tu turno con el Dr. %s ha sido cancelado.", patientName, dentistName)
	case ActionReschedule:
		subject = SubjectRescheduled
		text = fmt.Sprintf("Hola %s, hemos recibido tu solicitud de reprogramación de tu turno con el Dr. %s. Nos pondremos en contacto para coordinar una nueva fecha.", patientName, dentistName)
	default:
		return Message{}, fmt.Errorf("unknown response action %q", action)
	}

	body, err := render("response", struct{ Text string }{text})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: body, Text: text}, nil
}

func PasswordResetEmail(to, name, password string) (Message, error) {
	body, err := render("password", struct{ Name, Password string }{name, password})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: SubjectPasswordSent, HTML: body}, nil
}

// SupportEmail is the staff-facing copy of a support request.
type SupportEmail struct {
	To     string
	ID     uint
	Name   string
	Email  string
	Phone  string
	Body   string
	Images []string
}

func (s SupportEmail) Message() (Message, error) {
	body, err := render("support", s)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:          s.To,
		Subject:     fmt.Sprintf("%s #%d", SubjectSupport, s.ID),
		HTML:        body,
		Attachments: s.Images,
	}, nil
}
