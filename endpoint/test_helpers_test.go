package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/ariebrainware/dentplanner-api/notify"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (f *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) messages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.sent...)
}

type fakeSender struct {
	mu      sync.Mutex
	waID    string
	sent    []notify.TemplateReminder
	replies []string
}

func (f *fakeSender) SendReminder(_ context.Context, msg notify.TemplateReminder) (notify.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return notify.SendResult{WaID: f.waID, MessageID: "wamid.out", Raw: []byte(`{}`)}, nil
}

func (f *fakeSender) Reply(_ context.Context, _, body, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, body)
	return nil
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	cfg    *config.Config
	mailer *fakeMailer
	sender *fakeSender
}

var dbSeq int64

// newTestEnv opens a private in-memory database and builds the full router
// against fake notification providers.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		AppName:             "DentPlanner",
		AppEnv:              "test",
		DBName:              fmt.Sprintf("endpoint_%d_%d", time.Now().UnixNano(), atomic.AddInt64(&dbSeq, 1)),
		ServerURL:           "https://api.example",
		UploadDir:           t.TempDir(),
		SupportEmail:        "support@clinic.com",
		WhatsAppVerifyToken: "verify-me",
		JWTExpiry:           time.Hour,
		ClinicName:          "DentPlanner",
	}
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mailer := &fakeMailer{}
	sender := &fakeSender{waID: "5491155551111"}
	slots := scheduling.NewService(scheduling.NewChecker(time.Minute), scheduling.NewLocker(nil))
	reminders := reminder.NewService(db, mailer, sender, nil, slots, reminder.Options{
		Channel:    model.ChannelEmail,
		ClinicName: cfg.ClinicName,
		ServerURL:  cfg.ServerURL,
	})
	services := &middleware.Services{
		Config:    cfg,
		Mailer:    mailer,
		WhatsApp:  sender,
		Slots:     slots,
		Reminders: reminders,
	}
	return &testEnv{db: db, router: SetupRouter(db, services), cfg: cfg, mailer: mailer, sender: sender}
}

func (e *testEnv) roleID(t *testing.T, name string) uint {
	t.Helper()
	var role model.Role
	require.NoError(t, e.db.Where("name = ?", name).First(&role).Error)
	return role.ID
}

// seedUser stores an active user of role with testPassword.
func (e *testEnv) seedUser(t *testing.T, role, email string) model.User {
	t.Helper()
	hash, salt, err := util.HashNewPassword(testPassword)
	require.NoError(t, err)
	u := model.User{
		FirstName:    "Laura",
		LastName:     "Gomez",
		DNI:          fmt.Sprintf("%d", 30000000+atomic.AddInt64(&dbSeq, 1)),
		Email:        email,
		Password:     hash,
		PasswordSalt: salt,
		RoleID:       e.roleID(t, role),
		Active:       true,
	}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) seedPatient(t *testing.T, dni, email string) model.Patient {
	t.Helper()
	p := model.Patient{
		FirstName:   "Juan",
		LastName:    "Perez",
		BirthDate:   "1990-05-17",
		DNI:         dni,
		Email:       email,
		PhoneNumber: "5491155551111",
	}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) seedReason(t *testing.T, minutes int) model.Reason {
	t.Helper()
	r := model.Reason{Description: "Cleaning", DurationMinutes: minutes}
	require.NoError(t, e.db.Create(&r).Error)
	return r
}

func (e *testEnv) seedAppointment(t *testing.T, a model.Appointment) model.Appointment {
	t.Helper()
	if a.Assistance == "" {
		a.Assistance = model.AssistancePending
	}
	require.NoError(t, e.db.Create(&a).Error)
	return a
}

// login authenticates through the login route and returns the bearer token.
func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	rr := doRequest(e.router, requestParams{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   map[string]string{"email": email, "password": testPassword},
	})
	require.Equalf(t, http.StatusOK, rr.Code, "login failed: %s", rr.Body.String())
	var data LoginResponse
	parseData(t, rr, &data)
	require.NotEmpty(t, data.Token)
	return data.Token
}

// staff seeds a user with role and logs them in.
func (e *testEnv) staff(t *testing.T, role string) (model.User, string) {
	t.Helper()
	u := e.seedUser(t, role, fmt.Sprintf("%s%d@clinic.com", role, atomic.AddInt64(&dbSeq, 1)))
	return u, e.login(t, u.Email)
}

// booking seeds a patient, a dentist and a reason of the given duration.
type booking struct {
	patient model.Patient
	dentist model.User
	reason  model.Reason
	token   string
}

func (e *testEnv) booking(t *testing.T, minutes int) booking {
	t.Helper()
	dentist, token := e.staff(t, model.RoleDentist)
	return booking{
		patient: e.seedPatient(t, "A1234567", "juan@mail.com"),
		dentist: dentist,
		reason:  e.seedReason(t, minutes),
		token:   token,
	}
}
