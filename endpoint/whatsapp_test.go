package endpoint

import (
	"net/http"
	"testing"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookBody(from, text string) map[string]interface{} {
	return map[string]interface{}{
		"object": "whatsapp_business_account",
		"entry": []interface{}{map[string]interface{}{
			"changes": []interface{}{map[string]interface{}{
				"value": map[string]interface{}{
					"messages": []interface{}{map[string]interface{}{
						"id":   "wamid.in",
						"from": from,
						"type": "text",
						"text": map[string]string{"body": text},
					}},
				},
			}},
		}},
	}
}

func TestVerifyWhatsAppWebhook(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name  string
		query string
		want  int
		body  string
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusForbidden, ""},
		{"missing", "", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(e.router, requestParams{method: http.MethodGet, path: "/api/whatsapp/webhook?" + tt.query})
			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
}

func TestReceiveWhatsAppWebhook_ConfirmsAppointment(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.seedAppointment(t, model.Appointment{PatientID: b.patient.ID, DentistID: b.dentist.ID, ReasonID: b.reason.ID, Date: "2026-03-14", Time: "09:00", State: model.StatePending, IsActive: true})
	require.NoError(t, e.db.Create(&model.Reminder{AppointmentID: a.ID, Status: model.ReminderSent, Channel: model.ChannelWhatsApp, WaID: "5491155551111", SentAt: time.Now()}).Error)

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/webhook", body: webhookBody("5491155551111", "1")})
	require.Equal(t, http.StatusOK, rr.Code)

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StateConfirmed, stored.State)

	var rem model.Reminder
	require.NoError(t, e.db.Where("appointment_id = ?", a.ID).First(&rem).Error)
	require.NotNil(t, rem.Response)
	assert.Equal(t, model.StateConfirmed, *rem.Response)
	assert.Len(t, e.sender.replies, 1)
}

func TestReceiveWhatsAppWebhook_SlotTakenStillAcknowledged(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	e.seedAppointment(t, model.Appointment{PatientID: b.patient.ID, DentistID: b.dentist.ID, ReasonID: b.reason.ID, Date: "2026-03-14", Time: "09:00", State: model.StateConfirmed})
	a := e.seedAppointment(t, model.Appointment{PatientID: b.patient.ID, DentistID: b.dentist.ID, ReasonID: b.reason.ID, Date: "2026-03-14", Time: "09:15", State: model.StatePending, IsActive: true})
	require.NoError(t, e.db.Create(&model.Reminder{AppointmentID: a.ID, Status: model.ReminderSent, Channel: model.ChannelWhatsApp, WaID: "5491155551111", SentAt: time.Now()}).Error)

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/webhook", body: webhookBody("5491155551111", "1")})
	require.Equal(t, http.StatusOK, rr.Code)

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StatePending, stored.State)
	assert.Len(t, e.sender.replies, 1)
}

func TestReceiveWhatsAppWebhook_Ignored(t *testing.T) {
	e := newTestEnv(t)

	body := webhookBody("5491155551111", "1")
	body["object"] = "page"
	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/webhook", body: body})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/webhook", body: []byte("{not json")})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// unknown senders are accepted and dropped
	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/webhook", body: webhookBody("111", "1")})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, e.sender.replies)
}

func TestSendWhatsAppReminder(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.seedAppointment(t, model.Appointment{PatientID: b.patient.ID, DentistID: b.dentist.ID, ReasonID: b.reason.ID, Date: "2026-03-14", Time: "09:00", State: model.StatePending})

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/send", token: b.token, body: map[string]interface{}{"appointment_id": a.ID}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var res SendWhatsAppResponse
	parseData(t, rr, &res)
	assert.Equal(t, a.ID, res.AppointmentID)
	assert.Equal(t, "5491155551111", res.WaID)

	var rem model.Reminder
	require.NoError(t, e.db.Where("appointment_id = ?", a.ID).First(&rem).Error)
	assert.Equal(t, model.ChannelWhatsApp, rem.Channel)
	assert.Equal(t, "5491155551111", rem.WaID)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/send", token: b.token, body: map[string]interface{}{"appointment_id": 9999}})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/whatsapp/send", body: map[string]interface{}{"appointment_id": a.ID}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
