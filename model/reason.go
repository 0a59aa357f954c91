package model

import "gorm.io/gorm"

// Reason is a catalogued visit type. Its duration sizes every appointment
// booked with it.
type Reason struct {
	gorm.Model
	Description     string `gorm:"type:varchar(55);not null" json:"description" example:"Cleaning"`
	DurationMinutes int    `gorm:"not null;default:0" json:"duration_minutes" example:"30"`
}
