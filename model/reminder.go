package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReminderSent      = "sent"
	ReminderDelivered = "delivered"
	ReminderFailed    = "failed"

	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// ReminderConfiguration controls whether and how many hours ahead an
// appointment gets a reminder.
type ReminderConfiguration struct {
	gorm.Model
	AppointmentID    uint `gorm:"not null;uniqueIndex" json:"appointment_id" example:"1"`
	AnticipationTime int  `gorm:"not null" json:"anticipation_time" example:"24"`
	IsActive         bool `json:"is_active"`
}

// Reminder is the single dispatch record of an appointment.
type Reminder struct {
	gorm.Model
	AppointmentID      uint           `gorm:"not null;uniqueIndex" json:"appointment_id" example:"1"`
	Status             string         `gorm:"type:varchar(16);not null;default:sent" json:"status" example:"sent"`
	Channel            string         `gorm:"type:varchar(16)" json:"channel" example:"email"`
	Response           *string        `gorm:"type:varchar(16)" json:"response"`
	WaID               string         `gorm:"column:wa_id;type:varchar(32);index" json:"wa_id,omitempty"`
	SentAt             time.Time      `json:"sent_at"`
	ResponseReceivedAt *time.Time     `json:"response_received_at"`
	Payload            datatypes.JSON `json:"-"`
}
