package reminder

import (
	"context"
	"time"

	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/robfig/cron/v3"
)

// cronLogger routes robfig/cron logs into zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	util.Logger().Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	util.Logger().Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler runs Service.Scan on a cron spec. A run that is still going
// when the next one fires makes the next one skip.
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	id   cron.EntryID
}

func NewScheduler(svc *Service, spec string) (*Scheduler, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{cron: c, svc: svc}
	id, err := c.AddFunc(spec, s.run)
	if err != nil {
		return nil, err
	}
	s.id = id
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	started := time.Now()
	res, err := s.svc.Scan(ctx, started)
	evt := util.Logger().Info()
	if err != nil {
		evt = util.Logger().Error().Err(err)
	}
	evt.Int("sent", res.Sent).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Dur("took", time.Since(started)).
		Msg("reminder scan finished")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Next reports when the scan fires next. Zero before Start.
func (s *Scheduler) Next() time.Time { return s.cron.Entry(s.id).Next }

// Stop stops scheduling and waits for a running scan until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
