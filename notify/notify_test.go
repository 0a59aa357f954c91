package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderEmail_Links(t *testing.T) {
	msg, err := ReminderEmail{
		To:            "juan@mail.com",
		AppointmentID: 42,
		PatientName:   "Juan",
		DentistName:   "Laura",
		ClinicName:    "DentPlanner",
		Date:          "14/03/2026",
		Time:          "09:30",
		ServerURL:     "https://api.example/",
	}.Message()
	require.NoError(t, err)

	assert.Equal(t, "juan@mail.com", msg.To)
	assert.Equal(t, SubjectReminder, msg.Subject)
	assert.Contains(t, msg.HTML, "https://api.example/api/appointments/confirm/42")
	assert.Contains(t, msg.HTML, "https://api.example/api/appointments/cancel/42")
	assert.Contains(t, msg.HTML, "https://api.example/api/appointments/reschedule/42")
	assert.Contains(t, msg.HTML, "<strong>14/03/2026</strong>")
}

func TestReminderEmail_EscapesNames(t *testing.T) {
	msg, err := ReminderEmail{To: "x@mail.com", PatientName: "<script>", ServerURL: "http://h"}.Message()
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestResponseEmail(t *testing.T) {
	cases := map[string]string{
		ActionConfirm:    SubjectConfirmed,
		ActionCancel:     SubjectCancelled,
		ActionReschedule: SubjectRescheduled,
	}
	for action, subject := range cases {
		msg, err := ResponseEmail("juan@mail.com", action, "Juan", "Laura")
		require.NoError(t, err, action)
		assert.Equal(t, subject, msg.Subject)
		assert.Contains(t, msg.Text, "Dr. Laura")
	}

	_, err := ResponseEmail("juan@mail.com", "delete", "Juan", "Laura")
	assert.Error(t, err)
}

func TestPasswordAndSupportEmails(t *testing.T) {
	msg, err := PasswordResetEmail("laura@clinic.com", "Laura", "a1b2c3d4")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "a1b2c3d4")

	msg, err = SupportEmail{To: "support@clinic.com", ID: 7, Name: "Juan Perez", Email: "juan@mail.com", Body: "No puedo entrar", Images: []string{"uploads/a.png"}}.Message()
	require.NoError(t, err)
	assert.Equal(t, "Nueva solicitud de soporte #7", msg.Subject)
	assert.Equal(t, []string{"uploads/a.png"}, msg.Attachments)
	assert.Contains(t, msg.HTML, "No puedo entrar")
}

func TestReplyText(t *testing.T) {
	assert.Equal(t, "Tu turno ha sido confirmado. ¡Te esperamos!", ReplyText("1"))
	assert.Contains(t, ReplyText("2"), "cancelado")
	assert.Contains(t, ReplyText("3"), "reprogramación")
	assert.Equal(t, "Tu respuesta 'hola' ha sido recibida.", ReplyText("hola"))
}

func TestSMTPMailer_Build(t *testing.T) {
	m := NewSMTPMailer("smtp.example", 587, "clinic@example.com", "pw", "")

	_, err := m.build(Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)

	out, err := m.build(Message{To: "juan@mail.com", Subject: "Hola", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)
	rcpts, err := out.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"juan@mail.com"}, rcpts)
}

func TestNewMailer(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer(&config.Config{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(&config.Config{SMTPHost: "smtp.example", SMTPPort: 587}))
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: "a@b.c"}))
}

func TestNewWhatsAppSender(t *testing.T) {
	assert.IsType(t, DisabledSender{}, NewWhatsAppSender(&config.Config{WhatsAppProvider: "cloud"}))
	assert.IsType(t, &CloudClient{}, NewWhatsAppSender(&config.Config{WhatsAppProvider: "cloud", WhatsAppToken: "t", WhatsAppPhoneNumberID: "123"}))
	assert.IsType(t, &TwilioSender{}, NewWhatsAppSender(&config.Config{WhatsAppProvider: "twilio", TwilioAccountSID: "AC1", TwilioFrom: "+14155238886"}))

	_, err := DisabledSender{}.SendReminder(context.Background(), TemplateReminder{})
	assert.ErrorIs(t, err, ErrWhatsAppDisabled)
}

func TestCloudClient_SendReminder(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v19.0/555/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"5491155551111","wa_id":"5491155551111"}],"messages":[{"id":"wamid.abc"}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient("secret", "555", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	res, err := c.SendReminder(context.Background(), TemplateReminder{
		To: "5491155551111", PatientName: "Juan", ClinicName: "DentPlanner",
		Date: "14-03-2026", Time: "09:30", DentistName: "Laura",
	})
	require.NoError(t, err)
	assert.Equal(t, "5491155551111", res.WaID)
	assert.Equal(t, "wamid.abc", res.MessageID)
	assert.NotEmpty(t, res.Raw)

	tpl := got["template"].(map[string]interface{})
	assert.Equal(t, ReminderTemplateName, tpl["name"])
	assert.Equal(t, ReminderLanguage, tpl["language"].(map[string]interface{})["code"])
	params := tpl["components"].([]interface{})[0].(map[string]interface{})["parameters"].([]interface{})
	require.Len(t, params, 5)
	assert.Equal(t, "14-03-2026", params[2].(map[string]interface{})["text"])
}

func TestCloudClient_Reply(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.reply"}]}`))
	}))
	defer srv.Close()

	c := NewCloudClient("secret", "555", WithBaseURL(srv.URL))
	require.NoError(t, c.Reply(context.Background(), "549115", "ok", "wamid.in"))

	assert.Equal(t, "ok", got["text"].(map[string]interface{})["body"])
	assert.Equal(t, "wamid.in", got["context"].(map[string]interface{})["message_id"])
}

func TestCloudClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	}))
	defer srv.Close()

	c := NewCloudClient("bad", "555", WithBaseURL(srv.URL))
	_, err := c.SendReminder(context.Background(), TemplateReminder{To: "1"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Invalid OAuth access token"))
}

func TestReminderTextAndTwilioAddress(t *testing.T) {
	text := ReminderText(TemplateReminder{PatientName: "Juan", ClinicName: "DentPlanner", Date: "14-03-2026", Time: "09:30", DentistName: "Laura"})
	assert.Contains(t, text, "14-03-2026")
	assert.Contains(t, text, "Responde 1")

	assert.Equal(t, "whatsapp:+5491155551111", twilioAddress("+5491155551111"))
	assert.Equal(t, "whatsapp:+1", twilioAddress("whatsapp:+1"))
}
