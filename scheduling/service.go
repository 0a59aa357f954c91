package scheduling

import (
	"context"

	"github.com/ariebrainware/dentplanner-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs appointment writes under the slot checks.
type Service struct {
	Checker *Checker
	Locker  *Locker
}

func NewService(checker *Checker, locker *Locker) *Service {
	return &Service{Checker: checker, Locker: locker}
}

// Reserve resolves the references of req and, when state holds a slot,
// validates the slot and runs write in the same transaction. Holding writes
// first lock the dentist's user row (SELECT ... FOR UPDATE), so two holding
// bookings of one dentist never check the slot at the same time. The Redis
// dentist-day lock, when available, keeps contending requests off the
// database.
//
// Appointments in a non-holding state (pending, cancelled, rescheduled)
// neither block nor get blocked, so only the references are checked.
func (s *Service) Reserve(ctx context.Context, db *gorm.DB, req SlotRequest, state string, write func(tx *gorm.DB) error) error {
	holding := model.IsHolding(state)

	if holding {
		release, err := s.Locker.Acquire(ctx, req.DentistID, req.Date)
		if err != nil {
			return err
		}
		defer release()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Must be the first statement so the slot read below sees every
		// booking committed before the lock was granted.
		if holding && req.DentistID != 0 {
			if err := lockDentistRow(tx, req.DentistID).Error; err != nil {
				return err
			}
		}
		if err := s.Checker.ResolveReferences(tx, req); err != nil {
			return err
		}
		if holding {
			if err := s.Checker.CheckSlot(tx, req); err != nil {
				return err
			}
		}
		return write(tx)
	})
}

// lockDentistRow takes a row lock on the dentist. A missing dentist is left
// to ResolveReferences. SQLite has no row locks and serialises writers.
func lockDentistRow(tx *gorm.DB, dentistID uint) *gorm.DB {
	var u model.User
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").Where("id = ?", dentistID).Limit(1).Find(&u)
}
