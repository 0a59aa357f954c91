package model

import "gorm.io/gorm"

type Patient struct {
	gorm.Model
	FirstName              string `gorm:"type:varchar(55);not null" json:"first_name" example:"Juan"`
	LastName               string `gorm:"type:varchar(55);not null" json:"last_name" example:"Perez"`
	BirthDate              string `gorm:"type:varchar(10)" json:"birth_date" example:"1990-05-17"`
	DNI                    string `gorm:"column:dni;type:varchar(20);not null;uniqueIndex" json:"dni" example:"A1234567"`
	PhoneNumber            string `gorm:"type:varchar(30)" json:"phone_number" example:"+5491155551111"`
	AlternativePhoneNumber string `gorm:"type:varchar(30)" json:"alternative_phone_number,omitempty"`
	Email                  string `gorm:"type:varchar(191);not null;uniqueIndex" json:"email" example:"juan@mail.com"`
}

func (p Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
