package reminder

import (
	"context"
	"errors"
	"testing"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWhatsApp_CreatesReminderWithWaID(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-20", "11:00", model.StatePending, 24, true)

	res, err := e.svc.SendWhatsApp(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "5491155551111", res.WaID)

	require.Len(t, e.sender.reminders, 1)
	assert.Equal(t, "20-03-2026", e.sender.reminders[0].Date)
	assert.Equal(t, "Laura", e.sender.reminders[0].DentistName)

	recs := e.reminders(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "5491155551111", recs[0].WaID)
	assert.Equal(t, model.ChannelWhatsApp, recs[0].Channel)

	// a second send updates the same record
	_, err = e.svc.SendWhatsApp(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, e.reminders(t), 1)
}

func TestSendWhatsApp_Errors(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)

	_, err := e.svc.SendWhatsApp(context.Background(), 999)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	a := e.appointment(t, "2026-03-20", "11:00", model.StatePending, 24, true)
	e.sender.err = errors.New("graph api down")
	_, err = e.svc.SendWhatsApp(context.Background(), a.ID)
	assert.Error(t, err)
	assert.Empty(t, e.reminders(t))
}
