package model

import "gorm.io/gorm"

type ClinicInfo struct {
	gorm.Model
	Name         string `gorm:"type:varchar(100);not null" json:"name" example:"DentPlanner"`
	PhoneNumber  string `gorm:"type:varchar(30)" json:"phone_number"`
	Address      string `gorm:"type:varchar(255)" json:"address"`
	Email        string `gorm:"type:varchar(191)" json:"email"`
	OpeningHours string `gorm:"type:varchar(5)" json:"opening_hours" example:"08:00"`
	ClosingHours string `gorm:"type:varchar(5)" json:"closing_hours" example:"18:00"`
}

func (ClinicInfo) TableName() string { return "clinic_info" }
