package model

import "gorm.io/gorm"

// AllModels lists every persisted entity in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Role{},
		&ClinicInfo{},
		&User{},
		&Session{},
		&Patient{},
		&Reason{},
		&Appointment{},
		&ReminderConfiguration{},
		&Reminder{},
		&Odontogram{},
		&Tooth{},
		&MedicalHistory{},
		&SupportRequest{},
		&SupportImage{},
		&SecurityLog{},
	}
}

// Migrate creates or updates the schema and seeds the built-in roles.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return err
	}
	return SeedRoles(db)
}
