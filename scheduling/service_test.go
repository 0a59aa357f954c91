package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariebrainware/dentplanner-api/model"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func confirmedInsert(req SlotRequest) func(tx *gorm.DB) error {
	return func(tx *gorm.DB) error {
		return tx.Create(&model.Appointment{PatientID: req.PatientID, DentistID: req.DentistID, ReasonID: req.ReasonID, Date: req.Date, Time: req.Time, State: model.StateConfirmed}).Error
	}
}

func TestLockDentistRow_SelectsForUpdate(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB { return lockDentistRow(tx, 7) })
	assert.Contains(t, sql, `FROM "users"`)
	assert.Contains(t, sql, "FOR UPDATE")
}

func TestService_ConcurrentHoldingBookingsOneWins(t *testing.T) {
	f := newFixture(t)
	svc := NewService(NewChecker(time.Minute), NewLocker(nil))
	req := f.request("09:00", f.short)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Reserve(context.Background(), f.db, req, model.StateConfirmed, confirmedInsert(req))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		assert.ErrorIs(t, err, ErrSlotTaken)
	}
	assert.Equal(t, 1, won)

	var count int64
	require.NoError(t, f.db.Model(&model.Appointment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_ReserveWhenRedisLockFails(t *testing.T) {
	f := newFixture(t)
	rdb, mock := redismock.NewClientMock()
	locker := NewLocker(rdb)
	locker.newToken = func() string { return "tok" }
	mock.ExpectSetNX(lockKey(f.dentist.ID, day), "tok", 5*time.Second).SetErr(errors.New("connection refused"))

	svc := NewService(NewChecker(time.Minute), locker)
	req := f.request("09:00", f.short)
	require.NoError(t, svc.Reserve(context.Background(), f.db, req, model.StateConfirmed, confirmedInsert(req)))

	// no further expectation: the second SetNX errors too and the
	// transactional check still guards the slot
	err := svc.Reserve(context.Background(), f.db, req, model.StateConfirmed, confirmedInsert(req))
	assert.ErrorIs(t, err, ErrSlotTaken)
}
