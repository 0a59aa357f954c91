// Package reminder finds appointments that are due a reminder, delivers it
// once, and applies the patient's answer.
package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ChannelBoth = "both"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrReminderNotFound    = errors.New("reminder not found")
	ErrAlreadyAnswered     = errors.New("reminder already answered")
	ErrUnknownAction       = errors.New("unknown reminder action")
)

// Options tunes a Service. Zero values fall back to the defaults below.
type Options struct {
	LeadHours  []int
	Channel    string
	ClinicName string
	ServerURL  string
	ClaimTTL   time.Duration
}

var DefaultLeadHours = []int{12, 24, 48, 72}

type Service struct {
	db       *gorm.DB
	mailer   notify.Mailer
	whatsapp notify.WhatsAppSender
	rdb      *redis.Client
	slots    *scheduling.Service
	opts     Options
	now      func() time.Time
}

func NewService(db *gorm.DB, mailer notify.Mailer, whatsapp notify.WhatsAppSender, rdb *redis.Client, slots *scheduling.Service, opts Options) *Service {
	if len(opts.LeadHours) == 0 {
		opts.LeadHours = DefaultLeadHours
	}
	if opts.Channel == "" {
		opts.Channel = model.ChannelEmail
	}
	if opts.ClaimTTL == 0 {
		opts.ClaimTTL = 10 * time.Minute
	}
	if mailer == nil {
		mailer = notify.LogMailer{}
	}
	if whatsapp == nil {
		whatsapp = notify.DisabledSender{}
	}
	return &Service{db: db, mailer: mailer, whatsapp: whatsapp, rdb: rdb, slots: slots, opts: opts, now: time.Now}
}

// Due is an appointment that should receive its reminder now.
type Due struct {
	AppointmentID uint
	Date          string
	Time          string
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	DentistName   string
}

// ScanResult counts what one scan did.
type ScanResult struct {
	Sent    int
	Failed  int
	Skipped int
}

// DueAt lists the appointments whose active configuration asks for a
// reminder leadHours ahead of now and that have no reminder yet.
func (s *Service) DueAt(ctx context.Context, now time.Time, leadHours int) ([]Due, error) {
	date := now.Add(time.Duration(leadHours) * time.Hour).Format(util.ISODate)

	var rows []Due
	err := s.dueQuery(ctx).
		Joins("JOIN reminder_configurations rc ON rc.appointment_id = a.id AND rc.deleted_at IS NULL").
		Where("rc.is_active = ? AND rc.anticipation_time = ? AND a.date = ?", true, leadHours, date).
		Where("a.state NOT IN ?", []string{model.StateCancelled, model.StateRescheduled}).
		Where("NOT EXISTS (SELECT 1 FROM reminders r WHERE r.appointment_id = a.id)").
		Order("a.id").
		Scan(&rows).Error
	return rows, err
}

func (s *Service) dueQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("appointments AS a").
		Select("a.id AS appointment_id, a.date, a.time, p.first_name AS patient_name, p.email AS patient_email, p.phone_number AS patient_phone, u.first_name AS dentist_name").
		Joins("JOIN patients p ON p.id = a.patient_id").
		Joins("JOIN users u ON u.id = a.dentist_id").
		Where("a.deleted_at IS NULL")
}

// Scan dispatches every reminder that is due at now. A failure for one lead
// time is logged and does not stop the others.
func (s *Service) Scan(ctx context.Context, now time.Time) (ScanResult, error) {
	var res ScanResult
	var firstErr error

	for _, h := range s.opts.LeadHours {
		due, err := s.DueAt(ctx, now, h)
		if err != nil {
			util.Logger().Error().Err(err).Int("lead_hours", h).Msg("reminder query failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, d := range due {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			switch s.dispatch(ctx, d) {
			case model.ReminderSent:
				res.Sent++
			case model.ReminderFailed:
				res.Failed++
			default:
				res.Skipped++
			}
		}
	}
	return res, firstErr
}

func claimKey(appointmentID uint) string {
	return fmt.Sprintf("reminder_claim:%d", appointmentID)
}

// claim reserves the appointment for this process. Without Redis, or when
// Redis fails, the unique index on reminders decides.
func (s *Service) claim(ctx context.Context, appointmentID uint) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, claimKey(appointmentID), "1", s.opts.ClaimTTL).Result()
	if err != nil {
		util.Logger().Warn().Err(err).Uint("appointment_id", appointmentID).Msg("reminder claim failed, continuing")
		return true
	}
	return ok
}

// dispatch sends and records one reminder. It returns the recorded status,
// or "" when the reminder was skipped.
func (s *Service) dispatch(ctx context.Context, d Due) string {
	log := util.Logger().With().Uint("appointment_id", d.AppointmentID).Logger()

	if !s.claim(ctx, d.AppointmentID) {
		log.Debug().Msg("reminder claimed elsewhere")
		return ""
	}

	rec := model.Reminder{
		AppointmentID: d.AppointmentID,
		Channel:       s.opts.Channel,
		SentAt:        s.now(),
	}

	var delivered, attempted int
	payload := map[string]interface{}{}

	if s.opts.Channel == model.ChannelEmail || s.opts.Channel == ChannelBoth {
		attempted++
		if err := s.sendEmail(ctx, d); err != nil {
			log.Error().Err(err).Msg("reminder email failed")
			payload["email_error"] = err.Error()
		} else {
			delivered++
		}
	}

	if s.opts.Channel == model.ChannelWhatsApp || s.opts.Channel == ChannelBoth {
		attempted++
		res, err := s.whatsapp.SendReminder(ctx, s.whatsappTemplate(d))
		if len(res.Raw) > 0 {
			payload["whatsapp"] = json.RawMessage(res.Raw)
		}
		if err != nil {
			log.Error().Err(err).Msg("reminder whatsapp failed")
			payload["whatsapp_error"] = err.Error()
		} else {
			delivered++
			rec.WaID = res.WaID
		}
	}

	rec.Status = model.ReminderSent
	if attempted == 0 || delivered == 0 {
		rec.Status = model.ReminderFailed
	}
	if len(payload) > 0 {
		if raw, err := json.Marshal(payload); err == nil {
			rec.Payload = datatypes.JSON(raw)
		}
	}

	recorded, err := s.record(ctx, &rec)
	if err != nil {
		log.Error().Err(err).Msg("failed to record reminder")
		return ""
	}
	if !recorded {
		return ""
	}

	log.Info().Str("status", rec.Status).Str("channel", rec.Channel).Msg("reminder dispatched")
	return rec.Status
}

func (s *Service) whatsappTemplate(d Due) notify.TemplateReminder {
	return notify.TemplateReminder{
		To:          d.PatientPhone,
		PatientName: d.PatientName,
		ClinicName:  s.opts.ClinicName,
		Date:        util.ReformatDate(d.Date, util.DisplayDate),
		Time:        d.Time,
		DentistName: d.DentistName,
	}
}

func (s *Service) sendEmail(ctx context.Context, d Due) error {
	msg, err := notify.ReminderEmail{
		To:            d.PatientEmail,
		AppointmentID: d.AppointmentID,
		PatientName:   d.PatientName,
		DentistName:   d.DentistName,
		ClinicName:    s.opts.ClinicName,
		Date:          util.ReformatDate(d.Date, util.SlashDate),
		Time:          d.Time,
		ServerURL:     s.opts.ServerURL,
	}.Message()
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

// record inserts rec unless the appointment already has a reminder.
func (s *Service) record(ctx context.Context, rec *model.Reminder) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&model.Reminder{}).Where("appointment_id = ?", rec.AppointmentID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if util.IsDuplicateKey(err) {
		return false, nil
	}
	return inserted, err
}
