package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	patient model.Patient
	dentist model.User
	short   model.Reason // 30 minutes
	long    model.Reason // 60 minutes
	instant model.Reason // zero duration
}

const day = "2026-03-14"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:sched_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Patient{}, &model.User{}, &model.Reason{}, &model.Appointment{}))

	f := &fixture{db: db}
	f.patient = model.Patient{FirstName: "Juan", LastName: "Perez", DNI: "P1", Email: "juan@mail.com"}
	f.dentist = model.User{FirstName: "Laura", LastName: "Gomez", DNI: "D1", Email: "laura@clinic.com", Password: "x", RoleID: 2}
	f.short = model.Reason{Description: "Cleaning", DurationMinutes: 30}
	f.long = model.Reason{Description: "Root canal", DurationMinutes: 60}
	f.instant = model.Reason{Description: "Check-in", DurationMinutes: 0}
	require.NoError(t, db.Create(&f.patient).Error)
	require.NoError(t, db.Create(&f.dentist).Error)
	require.NoError(t, db.Create(&f.short).Error)
	require.NoError(t, db.Create(&f.long).Error)
	require.NoError(t, db.Create(&f.instant).Error)
	return f
}

func (f *fixture) book(t *testing.T, at string, reason model.Reason, state string) model.Appointment {
	t.Helper()
	a := model.Appointment{PatientID: f.patient.ID, DentistID: f.dentist.ID, ReasonID: reason.ID, Date: day, Time: at, State: state, Assistance: model.AssistancePending}
	require.NoError(t, f.db.Create(&a).Error)
	return a
}

func (f *fixture) request(at string, reason model.Reason) SlotRequest {
	return SlotRequest{PatientID: f.patient.ID, DentistID: f.dentist.ID, ReasonID: reason.ID, Date: day, Time: at}
}

func TestCheckSlot_Examples(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	f.book(t, "09:00", f.short, model.StateConfirmed)

	err := c.CheckSlot(f.db, f.request("09:29", f.short))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	assert.NoError(t, c.CheckSlot(f.db, f.request("09:30", f.short)))
	assert.NoError(t, c.CheckSlot(f.db, f.request("08:30", f.short)))

	err = c.CheckSlot(f.db, f.request("08:45", f.long))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCheckSlot_ExactStartIsTaken(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	f.book(t, "10:00", f.short, model.StateConfirmed)

	err := c.CheckSlot(f.db, f.request("10:00", f.short))
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.False(t, errors.Is(err, ErrSlotUnavailable))
}

func TestCheckSlot_NonHoldingStatesDoNotBlock(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	f.book(t, "09:00", f.long, model.StatePending)
	f.book(t, "09:00", f.long, model.StateCancelled)
	f.book(t, "09:15", f.long, model.StateRescheduled)

	assert.NoError(t, c.CheckSlot(f.db, f.request("09:00", f.short)))
	assert.NoError(t, c.CheckSlot(f.db, f.request("09:20", f.long)))
}

func TestCheckSlot_OtherDentistOrDateIgnored(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	f.book(t, "09:00", f.long, model.StateConfirmed)

	other := model.User{FirstName: "Ana", LastName: "Ruiz", DNI: "D2", Email: "ana@clinic.com", Password: "x", RoleID: 2}
	require.NoError(t, f.db.Create(&other).Error)

	req := f.request("09:00", f.short)
	req.DentistID = other.ID
	assert.NoError(t, c.CheckSlot(f.db, req))

	req = f.request("09:00", f.short)
	req.Date = "2026-03-15"
	assert.NoError(t, c.CheckSlot(f.db, req))
}

func TestCheckSlot_ExcludesSelfOnUpdate(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	a := f.book(t, "09:00", f.long, model.StateConfirmed)

	req := f.request("09:30", f.long)
	req.ExcludeID = a.ID
	assert.NoError(t, c.CheckSlot(f.db, req))

	req.ExcludeID = 0
	assert.ErrorIs(t, c.CheckSlot(f.db, req), ErrSlotUnavailable)
}

func TestCheckSlot_ZeroDuration(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)
	f.book(t, "09:00", f.short, model.StateConfirmed)

	assert.ErrorIs(t, c.CheckSlot(f.db, f.request("09:10", f.instant)), ErrSlotUnavailable)
	assert.NoError(t, c.CheckSlot(f.db, f.request("09:30", f.instant)))

	f.book(t, "12:00", f.instant, model.StateConfirmed)
	assert.ErrorIs(t, c.CheckSlot(f.db, f.request("11:45", f.short)), ErrSlotUnavailable)
	assert.NoError(t, c.CheckSlot(f.db, f.request("11:30", f.short)))
}

func TestResolveReferences(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)

	assert.NoError(t, c.ResolveReferences(f.db, f.request("09:00", f.short)))

	req := f.request("09:00", f.short)
	req.PatientID = 999
	assert.ErrorIs(t, c.ResolveReferences(f.db, req), ErrPatientNotFound)

	req = f.request("09:00", f.short)
	req.DentistID = 999
	assert.ErrorIs(t, c.ResolveReferences(f.db, req), ErrDentistNotFound)

	req = f.request("09:00", f.short)
	req.ReasonID = 999
	assert.ErrorIs(t, c.ResolveReferences(f.db, req), ErrReasonNotFound)
}

func TestReasonDuration_CachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	c := NewChecker(time.Minute)

	d, err := c.ReasonDuration(f.db, f.short.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, d)

	require.NoError(t, f.db.Model(&f.short).Update("duration_minutes", 45).Error)
	d, _ = c.ReasonDuration(f.db, f.short.ID)
	assert.Equal(t, 30, d)

	c.InvalidateReason(f.short.ID)
	d, _ = c.ReasonDuration(f.db, f.short.ID)
	assert.Equal(t, 45, d)
}

func TestService_Reserve(t *testing.T) {
	f := newFixture(t)
	svc := NewService(NewChecker(time.Minute), NewLocker(nil))
	ctx := context.Background()
	f.book(t, "09:00", f.short, model.StateConfirmed)

	insert := func(req SlotRequest, state string) func(tx *gorm.DB) error {
		return func(tx *gorm.DB) error {
			return tx.Create(&model.Appointment{PatientID: req.PatientID, DentistID: req.DentistID, ReasonID: req.ReasonID, Date: req.Date, Time: req.Time, State: state}).Error
		}
	}

	req := f.request("09:15", f.short)
	err := svc.Reserve(ctx, f.db, req, model.StateConfirmed, insert(req, model.StateConfirmed))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// pending bookings are never blocked
	assert.NoError(t, svc.Reserve(ctx, f.db, req, model.StatePending, insert(req, model.StatePending)))

	req = f.request("09:30", f.short)
	assert.NoError(t, svc.Reserve(ctx, f.db, req, model.StateConfirmed, insert(req, model.StateConfirmed)))

	bad := f.request("13:00", f.short)
	bad.PatientID = 404
	assert.ErrorIs(t, svc.Reserve(ctx, f.db, bad, model.StatePending, insert(bad, model.StatePending)), ErrPatientNotFound)

	var count int64
	f.db.Model(&model.Appointment{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestService_ReserveRollsBackOnWriteError(t *testing.T) {
	f := newFixture(t)
	svc := NewService(NewChecker(time.Minute), NewLocker(nil))
	req := f.request("09:00", f.short)

	err := svc.Reserve(context.Background(), f.db, req, model.StateConfirmed, func(tx *gorm.DB) error {
		if err := tx.Create(&model.Appointment{PatientID: req.PatientID, DentistID: req.DentistID, ReasonID: req.ReasonID, Date: day, Time: "09:00", State: model.StateConfirmed}).Error; err != nil {
			return err
		}
		return errors.New("reminder configuration failed")
	})
	assert.Error(t, err)

	var count int64
	f.db.Model(&model.Appointment{}).Count(&count)
	assert.Zero(t, count)
}
