package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// visit seeds a confirmed appointment for the booking's patient.
func (e *testEnv) visit(t *testing.T, b booking) model.Appointment {
	t.Helper()
	return e.seedAppointment(t, model.Appointment{
		PatientID: b.patient.ID,
		DentistID: b.dentist.ID,
		ReasonID:  b.reason.ID,
		Date:      "2026-03-14",
		Time:      "09:00",
		State:     model.StateConfirmed,
	})
}

func TestOdontogramWithTeeth(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.visit(t, b)

	rr := doRequest(e.router, requestParams{
		method: http.MethodPost,
		path:   "/api/odontograms",
		token:  b.token,
		body:   map[string]interface{}{"appointment_id": a.ID, "patient_id": b.patient.ID, "date": "2026-03-14", "type": "adult"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var o model.Odontogram
	parseData(t, rr, &o)

	for _, n := range []int{18, 11} {
		rr = doRequest(e.router, requestParams{
			method: http.MethodPost,
			path:   "/api/teeth",
			token:  b.token,
			body:   map[string]interface{}{"odontogram_id": o.ID, "tooth_number": n, "general_condition": "caries"},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr = doRequest(e.router, requestParams{method: http.MethodGet, path: fmt.Sprintf("/api/odontograms/%d", o.ID), token: b.token})
	require.Equal(t, http.StatusOK, rr.Code)
	var detail OdontogramDetail
	parseData(t, rr, &detail)
	require.Len(t, detail.Teeth, 2)
	assert.Equal(t, 11, detail.Teeth[0].ToothNumber)

	rr = doRequest(e.router, requestParams{method: http.MethodGet, path: fmt.Sprintf("/api/odontograms/patient/%d", b.patient.ID), token: b.token})
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.Odontogram
	parseData(t, rr, &list)
	assert.Len(t, list, 1)

	rr = doRequest(e.router, requestParams{method: http.MethodGet, path: fmt.Sprintf("/api/teeth?odontogram_id=%d", o.ID), token: b.token})
	require.Equal(t, http.StatusOK, rr.Code)
	var teeth []model.Tooth
	parseData(t, rr, &teeth)
	require.Len(t, teeth, 2)

	rr = doRequest(e.router, requestParams{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/api/teeth/%d", teeth[0].ID),
		token:  b.token,
		body:   map[string]interface{}{"center": "filling"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var patched model.Tooth
	parseData(t, rr, &patched)
	assert.Equal(t, "filling", patched.Center)
	assert.Equal(t, "caries", patched.GeneralCondition)
}

func TestClinicalRecords_MissingReferences(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.visit(t, b)

	tests := []struct {
		name string
		path string
		body map[string]interface{}
		msg  string
	}{
		{"odontogram without patient", "/api/odontograms", map[string]interface{}{"appointment_id": a.ID, "patient_id": 9999, "date": "2026-03-14", "type": "child"}, "Patient not found"},
		{"odontogram without appointment", "/api/odontograms", map[string]interface{}{"appointment_id": 9999, "patient_id": b.patient.ID, "date": "2026-03-14", "type": "child"}, "Appointment not found"},
		{"tooth without odontogram", "/api/teeth", map[string]interface{}{"odontogram_id": 9999, "tooth_number": 18}, "Odontogram not found"},
		{"history without patient", "/api/medical-history", medicalHistoryBody(9999), "Patient not found"},
		{"reminder without appointment", "/api/reminders", map[string]interface{}{"appointment_id": 9999}, "Appointment not found"},
		{"configuration without appointment", "/api/reminder-configurations", map[string]interface{}{"appointment_id": 9999, "anticipation_time": 24}, "Appointment not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(e.router, requestParams{method: http.MethodPost, path: tt.path, token: b.token, body: tt.body})
			assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
			assert.Equal(t, tt.msg, parseResp(t, rr).Msg)
		})
	}

	rr := doRequest(e.router, requestParams{method: http.MethodGet, path: "/api/odontograms/patient/9999", token: b.token})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func medicalHistoryBody(patientID uint) map[string]interface{} {
	body := map[string]interface{}{"patient_id": patientID, "notes": "none"}
	for _, col := range medicalHistoryColumns {
		switch col {
		case "patient_id", "medications_notes", "allergies_notes", "notes":
			continue
		}
		body[col] = false
	}
	body["allergies"] = true
	body["allergies_notes"] = "penicillin"
	return body
}

func TestMedicalHistory(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/medical-history", token: b.token, body: medicalHistoryBody(b.patient.ID)})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var mh model.MedicalHistory
	parseData(t, rr, &mh)
	assert.True(t, mh.Allergies)
	assert.False(t, mh.Diabetes)

	// every flag must be present, false included
	missing := medicalHistoryBody(b.patient.ID)
	delete(missing, "diabetes")
	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/medical-history", token: b.token, body: missing})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	update := medicalHistoryBody(b.patient.ID)
	update["allergies"] = false
	rr = doRequest(e.router, requestParams{method: http.MethodPut, path: fmt.Sprintf("/api/medical-history/%d", mh.ID), token: b.token, body: update})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var stored model.MedicalHistory
	require.NoError(t, e.db.First(&stored, mh.ID).Error)
	assert.False(t, stored.Allergies)

	rr = doRequest(e.router, requestParams{method: http.MethodGet, path: fmt.Sprintf("/api/medical-history/patient/%d", b.patient.ID), token: b.token})
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.MedicalHistory
	parseData(t, rr, &list)
	assert.Len(t, list, 1)
}

func TestClinicInfo_AdminWrites(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.staff(t, model.RoleAdmin)
	_, secretary := e.staff(t, model.RoleSecretary)
	body := map[string]interface{}{
		"name":          "DentPlanner Centro",
		"address":       "Av. Siempreviva 742",
		"email":         "info@clinic.com",
		"opening_hours": "08:00",
		"closing_hours": "18:00",
	}

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/clinic-info", token: secretary, body: body})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/clinic-info", token: admin, body: body})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var info model.ClinicInfo
	parseData(t, rr, &info)

	rr = doRequest(e.router, requestParams{method: http.MethodPatch, path: fmt.Sprintf("/api/clinic-info/%d", info.ID), token: admin, body: map[string]interface{}{"closing_hours": "25:00"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPatch, path: fmt.Sprintf("/api/clinic-info/%d", info.ID), token: admin, body: map[string]interface{}{"closing_hours": "20:00"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	parseData(t, rr, &info)
	assert.Equal(t, "20:00", info.ClosingHours)
	assert.Equal(t, "08:00", info.OpeningHours)

	rr = doRequest(e.router, requestParams{method: http.MethodGet, path: "/api/clinic-info", token: secretary})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReminders_OnePerAppointment(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.visit(t, b)

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminders", token: b.token, body: map[string]interface{}{"appointment_id": a.ID}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var r model.Reminder
	parseData(t, rr, &r)
	assert.Equal(t, model.ReminderSent, r.Status)
	assert.Equal(t, model.ChannelEmail, r.Channel)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminders", token: b.token, body: map[string]interface{}{"appointment_id": a.ID}})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPut, path: fmt.Sprintf("/api/reminders/%d", r.ID), token: b.token, body: map[string]interface{}{"status": "delivered", "response": "confirmed"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	parseData(t, rr, &r)
	assert.Equal(t, model.ReminderDelivered, r.Status)
	require.NotNil(t, r.ResponseReceivedAt)

	// deleting frees the appointment for a new reminder
	rr = doRequest(e.router, requestParams{method: http.MethodDelete, path: fmt.Sprintf("/api/reminders/%d", r.ID), token: b.token})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminders", token: b.token, body: map[string]interface{}{"appointment_id": a.ID, "channel": "whatsapp"}})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestReminderConfigurations(t *testing.T) {
	e := newTestEnv(t)
	b := e.booking(t, 30)
	a := e.visit(t, b)

	rr := doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminder-configurations", token: b.token, body: map[string]interface{}{"appointment_id": a.ID, "anticipation_time": 0}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminder-configurations", token: b.token, body: map[string]interface{}{"appointment_id": a.ID, "anticipation_time": 48}})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var cfg model.ReminderConfiguration
	parseData(t, rr, &cfg)
	assert.True(t, cfg.IsActive)

	rr = doRequest(e.router, requestParams{method: http.MethodPost, path: "/api/reminder-configurations", token: b.token, body: map[string]interface{}{"appointment_id": a.ID, "anticipation_time": 24}})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doRequest(e.router, requestParams{method: http.MethodPut, path: fmt.Sprintf("/api/reminder-configurations/%d", cfg.ID), token: b.token, body: map[string]interface{}{"appointment_id": a.ID, "anticipation_time": 12, "is_active": false}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	parseData(t, rr, &cfg)
	assert.Equal(t, 12, cfg.AnticipationTime)
	assert.False(t, cfg.IsActive)
}
