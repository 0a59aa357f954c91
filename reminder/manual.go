package reminder

import (
	"context"
	"errors"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SendWhatsApp delivers the WhatsApp reminder of one appointment on demand.
// The reminder record is created, or updated with the new wa_id, so that
// the patient's answer can be matched later.
func (s *Service) SendWhatsApp(ctx context.Context, appointmentID uint) (notify.SendResult, error) {
	var d Due
	if err := s.dueQuery(ctx).Where("a.id = ?", appointmentID).Scan(&d).Error; err != nil {
		return notify.SendResult{}, err
	}
	if d.AppointmentID == 0 {
		return notify.SendResult{}, ErrAppointmentNotFound
	}

	res, err := s.whatsapp.SendReminder(ctx, s.whatsappTemplate(d))
	if err != nil {
		return res, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rem model.Reminder
		err := tx.Where("appointment_id = ?", appointmentID).First(&rem).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&model.Reminder{
				AppointmentID: appointmentID,
				Status:        model.ReminderSent,
				Channel:       model.ChannelWhatsApp,
				WaID:          res.WaID,
				SentAt:        s.now(),
				Payload:       datatypes.JSON(res.Raw),
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&rem).Updates(map[string]interface{}{
			"wa_id":   res.WaID,
			"channel": model.ChannelWhatsApp,
			"status":  model.ReminderSent,
		}).Error
	})
	return res, err
}
