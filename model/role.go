package model

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	RoleAdmin     = "admin"
	RoleDentist   = "dentist"
	RoleSecretary = "secretary"
)

type Role struct {
	gorm.Model
	Name string `gorm:"type:varchar(55);not null;uniqueIndex" json:"name" example:"dentist"`
}

// SeedRoles inserts the built-in roles if they are missing.
func SeedRoles(db *gorm.DB) error {
	for _, name := range []string{RoleAdmin, RoleDentist, RoleSecretary} {
		var existing Role
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&Role{Name: name}).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}
	}
	return nil
}
