package model

import "gorm.io/gorm"

type Odontogram struct {
	gorm.Model
	AppointmentID uint   `gorm:"not null;index" json:"appointment_id"`
	PatientID     uint   `gorm:"not null;index" json:"patient_id"`
	Date          string `gorm:"type:varchar(10);not null" json:"date" example:"2026-03-14"`
	Type          string `gorm:"type:varchar(8);not null" json:"type" example:"adult"`
	Notes         string `gorm:"type:varchar(1000)" json:"notes"`
}

type Tooth struct {
	gorm.Model
	OdontogramID     uint   `gorm:"not null;index" json:"odontogram_id"`
	ToothNumber      int    `gorm:"not null" json:"tooth_number" example:"18"`
	GeneralCondition string `gorm:"type:varchar(55)" json:"general_condition"`
	MesialSide       string `gorm:"type:varchar(55)" json:"mesial_side"`
	DistalSide       string `gorm:"type:varchar(55)" json:"distal_side"`
	BuccalSide       string `gorm:"type:varchar(55)" json:"buccal_side"`
	LingualSide      string `gorm:"type:varchar(55)" json:"lingual_side"`
	Center           string `gorm:"type:varchar(55)" json:"center"`
}

func (Tooth) TableName() string { return "teeth" }
