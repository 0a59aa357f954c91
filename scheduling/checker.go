package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	cache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

var (
	ErrSlotUnavailable = errors.New("appointment slot unavailable")
	ErrSlotTaken       = errors.New("appointment slot already taken")
	ErrPatientNotFound = errors.New("patient not found")
	ErrDentistNotFound = errors.New("dentist not found")
	ErrReasonNotFound  = errors.New("reason not found")
)

// SlotRequest describes the slot an appointment wants to hold.
type SlotRequest struct {
	PatientID uint
	DentistID uint
	ReasonID  uint
	Date      string
	Time      string
	// ExcludeID is the appointment being updated, ignored by the checks.
	ExcludeID uint
}

// Checker validates slot requests against the appointments table. Reason
// durations are cached in memory; call InvalidateReason when a reason changes.
type Checker struct {
	durations *cache.Cache
}

func NewChecker(ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Checker{durations: cache.New(ttl, 2*ttl)}
}

func reasonKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// ReasonDuration returns the duration in minutes of a reason.
func (c *Checker) ReasonDuration(db *gorm.DB, reasonID uint) (int, error) {
	if v, ok := c.durations.Get(reasonKey(reasonID)); ok {
		return v.(int), nil
	}
	var reason model.Reason
	if err := db.Select("id", "duration_minutes").First(&reason, reasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrReasonNotFound
		}
		return 0, err
	}
	c.durations.Set(reasonKey(reasonID), reason.DurationMinutes, cache.DefaultExpiration)
	return reason.DurationMinutes, nil
}

// InvalidateReason drops a cached reason duration.
func (c *Checker) InvalidateReason(reasonID uint) {
	c.durations.Delete(reasonKey(reasonID))
}

type bookingRow struct {
	ID              uint
	Time            string
	State           string
	DurationMinutes int
}

// HoldingBookings loads the dentist's appointments on date that occupy
// their slot, with intervals sized by their reasons.
func (c *Checker) HoldingBookings(db *gorm.DB, dentistID uint, date string, excludeID uint) ([]Booking, error) {
	q := db.Table("appointments").
		Select("appointments.id, appointments.time, appointments.state, reasons.duration_minutes").
		Joins("JOIN reasons ON reasons.id = appointments.reason_id").
		Where("appointments.dentist_id = ? AND appointments.date = ?", dentistID, date).
		Where("appointments.state NOT IN ?", model.NonHoldingStates).
		Where("appointments.deleted_at IS NULL")
	if excludeID != 0 {
		q = q.Where("appointments.id <> ?", excludeID)
	}

	var rows []bookingRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	bookings := make([]Booking, 0, len(rows))
	for _, r := range rows {
		start, err := ParseClock(r.Time)
		if err != nil {
			return nil, fmt.Errorf("appointment %d: %w", r.ID, err)
		}
		bookings = append(bookings, Booking{
			AppointmentID: r.ID,
			State:         r.State,
			Interval:      NewInterval(start, r.DurationMinutes),
		})
	}
	return bookings, nil
}

// ResolveReferences checks that the patient, dentist and reason exist. Zero
// ids are skipped so partial updates can reuse it.
func (c *Checker) ResolveReferences(db *gorm.DB, req SlotRequest) error {
	if req.PatientID != 0 {
		if err := exists(db, &model.Patient{}, req.PatientID, ErrPatientNotFound); err != nil {
			return err
		}
	}
	if req.DentistID != 0 {
		if err := exists(db, &model.User{}, req.DentistID, ErrDentistNotFound); err != nil {
			return err
		}
	}
	if req.ReasonID != 0 {
		if _, err := c.ReasonDuration(db, req.ReasonID); err != nil {
			return err
		}
	}
	return nil
}

func exists(db *gorm.DB, m interface{}, id uint, notFound error) error {
	var count int64
	if err := db.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}

// CheckSlot rejects req when an existing holding appointment starts at the
// same time (ErrSlotTaken) or overlaps it (ErrSlotUnavailable).
func (c *Checker) CheckSlot(db *gorm.DB, req SlotRequest) error {
	start, err := ParseClock(req.Time)
	if err != nil {
		return err
	}
	duration, err := c.ReasonDuration(db, req.ReasonID)
	if err != nil {
		return err
	}

	bookings, err := c.HoldingBookings(db, req.DentistID, req.Date, req.ExcludeID)
	if err != nil {
		return err
	}

	for _, b := range bookings {
		if b.Interval.Start == start {
			return fmt.Errorf("%w: appointment %d starts at %s", ErrSlotTaken, b.AppointmentID, FormatClock(start))
		}
	}

	candidate := NewInterval(start, duration)
	if b, ok := FindConflict(candidate, bookings); ok {
		return fmt.Errorf("%w: %s-%s overlaps appointment %d (%s-%s)", ErrSlotUnavailable,
			FormatClock(candidate.Start), FormatClock(candidate.End),
			b.AppointmentID, FormatClock(b.Interval.Start), FormatClock(b.Interval.End))
	}
	return nil
}
