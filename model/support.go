package model

import "gorm.io/gorm"

type SupportRequest struct {
	gorm.Model
	FirstName   string         `gorm:"type:varchar(55);not null" json:"first_name"`
	LastName    string         `gorm:"type:varchar(55);not null" json:"last_name"`
	PhoneNumber string         `gorm:"type:varchar(30)" json:"phone_number"`
	Email       string         `gorm:"type:varchar(191);not null" json:"email"`
	IssueDetail string         `gorm:"type:text;not null" json:"issue_detail"`
	Images      []SupportImage `gorm:"foreignKey:SupportRequestID" json:"images,omitempty"`
}

type SupportImage struct {
	gorm.Model
	SupportRequestID uint   `gorm:"not null;index" json:"support_request_id"`
	ImagePath        string `gorm:"type:varchar(255);not null" json:"image_path"`
}
