package model

import "gorm.io/gorm"

const (
	StatePending     = "pending"
	StateConfirmed   = "confirmed"
	StateCancelled   = "cancelled"
	StateRescheduled = "rescheduled"

	AssistancePending = "pending"
	AssistancePresent = "present"
	AssistanceAbsent  = "absent"
)

// NonHoldingStates lists the states that do not occupy a slot.
var NonHoldingStates = []string{StateCancelled, StateRescheduled, StatePending}

// IsHolding reports whether an appointment in state blocks its slot.
func IsHolding(state string) bool {
	for _, s := range NonHoldingStates {
		if s == state {
			return false
		}
	}
	return true
}

type Appointment struct {
	gorm.Model
	PatientID    uint   `gorm:"not null;index" json:"patient_id" example:"1"`
	DentistID    uint   `gorm:"not null;index:idx_appointment_dentist_date" json:"dentist_id" example:"2"`
	ReasonID     uint   `gorm:"not null" json:"reason_id" example:"1"`
	Date         string `gorm:"type:varchar(10);not null;index:idx_appointment_dentist_date" json:"date" example:"2026-03-14"`
	Time         string `gorm:"type:varchar(5);not null" json:"time" example:"09:30"`
	State        string `gorm:"type:varchar(16);not null;default:pending" json:"state" example:"confirmed"`
	Assistance   string `gorm:"type:varchar(16);not null;default:pending" json:"assistance" example:"pending"`
	Observations string `gorm:"type:text" json:"observations"`
	IsActive     bool   `json:"is_active"`
}
