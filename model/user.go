package model

import "gorm.io/gorm"

// User is a staff member. Dentists are users whose role is RoleDentist.
type User struct {
	gorm.Model
	FirstName      string `gorm:"type:varchar(55);not null" json:"first_name" example:"Laura"`
	LastName       string `gorm:"type:varchar(55);not null" json:"last_name" example:"Gomez"`
	DNI            string `gorm:"column:dni;type:varchar(20);not null;uniqueIndex" json:"dni" example:"30111222"`
	Email          string `gorm:"type:varchar(191);not null;uniqueIndex" json:"email" example:"laura@clinic.com"`
	PhoneNumber    string `gorm:"type:varchar(30)" json:"phone_number" example:"+5491155550000"`
	Password       string `gorm:"type:varchar(255);not null" json:"-"`
	PasswordSalt   string `gorm:"type:varchar(64)" json:"-"`
	RoleID         uint   `gorm:"not null;index" json:"role_id" example:"2"`
	Active         bool   `json:"active" example:"true"`
	ClinicID       *uint  `json:"clinic_id,omitempty" example:"1"`
	ImagePath      string `gorm:"type:varchar(255)" json:"image_path,omitempty"`
	FailedAttempts int    `json:"-"`
	LockedUntil    *int64 `json:"-"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
