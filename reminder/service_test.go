package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSender struct {
	mu        sync.Mutex
	reminders []notify.TemplateReminder
	replies   []string
	replyTo   []string
	waID      string
	err       error
}

func (f *fakeSender) SendReminder(_ context.Context, msg notify.TemplateReminder) (notify.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return notify.SendResult{}, f.err
	}
	f.reminders = append(f.reminders, msg)
	return notify.SendResult{WaID: f.waID, MessageID: "wamid.1", Raw: []byte(`{"ok":true}`)}, nil
}

func (f *fakeSender) Reply(_ context.Context, to, body, replyTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, body)
	f.replyTo = append(f.replyTo, replyTo)
	return nil
}

// Fixed clock: 2026-03-13 10:00 local. A 24h lead time targets 2026-03-14.
var clock = time.Date(2026, 3, 13, 10, 0, 0, 0, time.Local)

type env struct {
	db      *gorm.DB
	mailer  *fakeMailer
	sender  *fakeSender
	svc     *Service
	patient model.Patient
	dentist model.User
	reason  model.Reason
}

func newEnv(t *testing.T, channel string) *env {
	t.Helper()
	dsn := fmt.Sprintf("file:reminder_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Patient{}, &model.User{}, &model.Reason{}, &model.Appointment{}, &model.ReminderConfiguration{}, &model.Reminder{}))

	e := &env{db: db, mailer: &fakeMailer{}, sender: &fakeSender{waID: "5491155551111"}}
	e.patient = model.Patient{FirstName: "Juan", LastName: "Perez", DNI: "P1", Email: "juan@mail.com", PhoneNumber: "5491155551111"}
	e.dentist = model.User{FirstName: "Laura", LastName: "Gomez", DNI: "D1", Email: "laura@clinic.com", Password: "x", RoleID: 2}
	e.reason = model.Reason{Description: "Cleaning", DurationMinutes: 30}
	require.NoError(t, db.Create(&e.patient).Error)
	require.NoError(t, db.Create(&e.dentist).Error)
	require.NoError(t, db.Create(&e.reason).Error)

	slots := scheduling.NewService(scheduling.NewChecker(time.Minute), scheduling.NewLocker(nil))
	e.svc = NewService(db, e.mailer, e.sender, nil, slots, Options{
		Channel:    channel,
		ClinicName: "DentPlanner",
		ServerURL:  "https://api.example",
	})
	e.svc.now = func() time.Time { return clock }
	return e
}

func (e *env) appointment(t *testing.T, date, at, state string, lead int, active bool) model.Appointment {
	t.Helper()
	a := model.Appointment{PatientID: e.patient.ID, DentistID: e.dentist.ID, ReasonID: e.reason.ID, Date: date, Time: at, State: state, IsActive: true}
	require.NoError(t, e.db.Create(&a).Error)
	rc := model.ReminderConfiguration{AppointmentID: a.ID, AnticipationTime: lead, IsActive: active}
	require.NoError(t, e.db.Create(&rc).Error)
	return a
}

func (e *env) reminders(t *testing.T) []model.Reminder {
	var out []model.Reminder
	require.NoError(t, e.db.Order("id").Find(&out).Error)
	return out
}

func TestScan_SendsOncePerAppointment(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	res, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)

	recs := e.reminders(t)
	require.Len(t, recs, 1)
	assert.Equal(t, a.ID, recs[0].AppointmentID)
	assert.Equal(t, model.ReminderSent, recs[0].Status)
	assert.Equal(t, model.ChannelEmail, recs[0].Channel)

	require.Len(t, e.mailer.sent, 1)
	msg := e.mailer.sent[0]
	assert.Equal(t, "juan@mail.com", msg.To)
	assert.Equal(t, notify.SubjectReminder, msg.Subject)
	assert.Contains(t, msg.HTML, fmt.Sprintf("https://api.example/api/appointments/confirm/%d", a.ID))
	assert.Contains(t, msg.HTML, "14/03/2026")
}

func TestScan_ConcurrentScansRecordOnce(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.svc.Scan(context.Background(), clock)
		}()
	}
	wg.Wait()

	assert.Len(t, e.reminders(t), 1)
}

func TestScan_Filters(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	e.appointment(t, "2026-03-14", "09:00", model.StateCancelled, 24, true)
	e.appointment(t, "2026-03-14", "10:00", model.StateRescheduled, 24, true)
	e.appointment(t, "2026-03-14", "11:00", model.StateConfirmed, 24, false)
	e.appointment(t, "2026-03-14", "12:00", model.StateConfirmed, 48, true)
	e.appointment(t, "2026-03-20", "12:00", model.StateConfirmed, 24, true)
	due := e.appointment(t, "2026-03-15", "08:00", model.StateConfirmed, 48, true)

	res, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	recs := e.reminders(t)
	require.Len(t, recs, 1)
	assert.Equal(t, due.ID, recs[0].AppointmentID)
}

func TestScan_WhatsAppChannel(t *testing.T) {
	e := newEnv(t, model.ChannelWhatsApp)
	e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	_, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)

	require.Len(t, e.sender.reminders, 1)
	sent := e.sender.reminders[0]
	assert.Equal(t, "5491155551111", sent.To)
	assert.Equal(t, "14-03-2026", sent.Date)
	assert.Equal(t, "09:30", sent.Time)
	assert.Equal(t, "DentPlanner", sent.ClinicName)
	assert.Empty(t, e.mailer.sent)

	recs := e.reminders(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "5491155551111", recs[0].WaID)
	assert.JSONEq(t, `{"whatsapp":{"ok":true}}`, string(recs[0].Payload))
}

func TestScan_FailedDeliveryIsRecorded(t *testing.T) {
	e := newEnv(t, ChannelBoth)
	e.mailer.err = errors.New("smtp down")
	e.sender.err = errors.New("token expired")
	e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	res, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	recs := e.reminders(t)
	require.Len(t, recs, 1)
	assert.Equal(t, model.ReminderFailed, recs[0].Status)

	// failed reminders are not retried
	res, _ = e.svc.Scan(context.Background(), clock)
	assert.Zero(t, res.Failed+res.Sent)
}

func TestScan_RedisClaim(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	rdb, mock := redismock.NewClientMock()
	e.svc.rdb = rdb
	mock.ExpectSetNX(claimKey(a.ID), "1", 10*time.Minute).SetVal(false)

	res, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, e.mailer.sent)
	assert.Empty(t, e.reminders(t))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondByLink(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)
	_, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)

	appt, err := e.svc.RespondByLink(context.Background(), a.ID, notify.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, model.StateConfirmed, appt.State)

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StateConfirmed, stored.State)

	recs := e.reminders(t)
	require.NotNil(t, recs[0].Response)
	assert.Equal(t, model.StateConfirmed, *recs[0].Response)
	assert.NotNil(t, recs[0].ResponseReceivedAt)

	require.Len(t, e.mailer.sent, 2)
	assert.Equal(t, notify.SubjectConfirmed, e.mailer.sent[1].Subject)

	_, err = e.svc.RespondByLink(context.Background(), a.ID, notify.ActionCancel)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
}

func TestRespondByLink_Errors(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)

	_, err := e.svc.RespondByLink(context.Background(), 999, notify.ActionConfirm)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = e.svc.RespondByLink(context.Background(), a.ID, notify.ActionConfirm)
	assert.ErrorIs(t, err, ErrReminderNotFound)

	_, err = e.svc.RespondByLink(context.Background(), a.ID, "delete")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRespondByLink_ConfirmIntoTakenSlot(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)
	e.appointment(t, "2026-03-14", "09:45", model.StateConfirmed, 72, true)
	_, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)

	_, err = e.svc.RespondByLink(context.Background(), a.ID, notify.ActionConfirm)
	assert.ErrorIs(t, err, scheduling.ErrSlotUnavailable)

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StatePending, stored.State)
	assert.Nil(t, e.reminders(t)[0].Response)

	// cancelling never conflicts
	_, err = e.svc.RespondByLink(context.Background(), a.ID, notify.ActionCancel)
	assert.NoError(t, err)
}

func TestHandleWhatsAppReply(t *testing.T) {
	e := newEnv(t, model.ChannelWhatsApp)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)
	_, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)

	out, err := e.svc.HandleWhatsAppReply(context.Background(), "5491155551111", "2", "wamid.in")
	require.NoError(t, err)
	assert.Equal(t, a.ID, out.AppointmentID)
	assert.Equal(t, model.StateCancelled, out.State)
	assert.True(t, out.Replied)

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StateCancelled, stored.State)

	require.Len(t, e.sender.replies, 1)
	assert.Equal(t, notify.ReplyText("2"), e.sender.replies[0])
	assert.Equal(t, "wamid.in", e.sender.replyTo[0])

	// the reminder is answered, a second "1" finds nothing open
	out, err = e.svc.HandleWhatsAppReply(context.Background(), "5491155551111", "1", "wamid.in2")
	require.NoError(t, err)
	assert.Zero(t, out.AppointmentID)
	assert.Len(t, e.sender.replies, 1)
}

func TestHandleWhatsAppReply_Other(t *testing.T) {
	e := newEnv(t, model.ChannelWhatsApp)
	a := e.appointment(t, "2026-03-14", "09:30", model.StatePending, 24, true)
	_, err := e.svc.Scan(context.Background(), clock)
	require.NoError(t, err)

	out, err := e.svc.HandleWhatsAppReply(context.Background(), "5491155551111", "hola", "wamid.x")
	require.NoError(t, err)
	assert.Empty(t, out.State)
	require.Len(t, e.sender.replies, 1)
	assert.Equal(t, "Tu respuesta 'hola' ha sido recibida.", e.sender.replies[0])

	var stored model.Appointment
	require.NoError(t, e.db.First(&stored, a.ID).Error)
	assert.Equal(t, model.StatePending, stored.State)

	out, err = e.svc.HandleWhatsAppReply(context.Background(), "000", "1", "wamid.y")
	require.NoError(t, err)
	assert.Zero(t, out.PatientID)
}

func TestStateForReply(t *testing.T) {
	s, ok := StateForReply("1")
	assert.True(t, ok)
	assert.Equal(t, model.StateConfirmed, s)
	_, ok = StateForReply("4")
	assert.False(t, ok)
}

func TestScheduler(t *testing.T) {
	e := newEnv(t, model.ChannelEmail)

	_, err := NewScheduler(e.svc, "not a spec")
	assert.Error(t, err)

	s, err := NewScheduler(e.svc, "@every 1h")
	require.NoError(t, err)
	s.Start()
	assert.False(t, s.Next().IsZero())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
