package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrate_SeedsRolesOnce(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var count int64
	require.NoError(t, db.Model(&Role{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	var dentist Role
	require.NoError(t, db.Where("name = ?", RoleDentist).First(&dentist).Error)
}

func TestPatient_UniqueDNIAndEmail(t *testing.T) {
	db := setupTestDB(t, &Patient{})

	require.NoError(t, db.Create(&Patient{FirstName: "Ana", LastName: "Diaz", DNI: "X1", Email: "ana@mail.com"}).Error)

	err := db.Create(&Patient{FirstName: "Otra", LastName: "Diaz", DNI: "X1", Email: "otra@mail.com"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	err = db.Create(&Patient{FirstName: "Otra", LastName: "Diaz", DNI: "X2", Email: "ana@mail.com"}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestReminder_OnePerAppointment(t *testing.T) {
	db := setupTestDB(t, &Reminder{})

	require.NoError(t, db.Create(&Reminder{AppointmentID: 7, Status: ReminderSent, SentAt: time.Now()}).Error)
	err := db.Create(&Reminder{AppointmentID: 7, Status: ReminderSent, SentAt: time.Now()}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestTableNames(t *testing.T) {
	db := setupTestDB(t, &Tooth{}, &MedicalHistory{}, &ClinicInfo{})

	assert.True(t, db.Migrator().HasTable("teeth"))
	assert.True(t, db.Migrator().HasTable("medical_history"))
	assert.True(t, db.Migrator().HasTable("clinic_info"))
}

func TestIsHolding(t *testing.T) {
	assert.True(t, IsHolding(StateConfirmed))
	assert.False(t, IsHolding(StatePending))
	assert.False(t, IsHolding(StateCancelled))
	assert.False(t, IsHolding(StateRescheduled))
}

func TestSupportRequest_PreloadsImages(t *testing.T) {
	db := setupTestDB(t, &SupportRequest{}, &SupportImage{})

	req := SupportRequest{
		FirstName: "Eva", LastName: "Luna", Email: "eva@mail.com", IssueDetail: "Cannot log in",
		Images: []SupportImage{{ImagePath: "uploads/a.png"}, {ImagePath: "uploads/b.png"}},
	}
	require.NoError(t, db.Create(&req).Error)

	var found SupportRequest
	require.NoError(t, db.Preload("Images").First(&found, req.ID).Error)
	assert.Len(t, found.Images, 2)
}

func TestSecurityLog_Details(t *testing.T) {
	db := setupTestDB(t, &SecurityLog{})

	entry := SecurityLog{EventType: "LOGIN_FAILURE", Email: "x@mail.com", Details: []byte(`{"reason":"invalid password"}`)}
	require.NoError(t, db.Create(&entry).Error)

	var found SecurityLog
	require.NoError(t, db.First(&found, entry.ID).Error)
	assert.JSONEq(t, `{"reason":"invalid password"}`, string(found.Details))
}
