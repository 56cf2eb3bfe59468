package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/projectnest/projectnest/internal/clock"
	paymentdomain "github.com/projectnest/projectnest/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	PaymentSvc paymentdomain.Service
	Repo       paymentdomain.Repository
	Config     Config `optional:"true"`
}

// Scheduler re-verifies payment attempts that never reached a terminal
// status. Webhooks get lost and customers close tabs; the gateway still
// holds the authoritative answer, so old pending rows are swept through the
// same reconciliation path the webhook would have taken.
type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	paymentSvc paymentdomain.Service
	repo       paymentdomain.Repository
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.PaymentSvc == nil || p.Repo == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		paymentSvc: p.PaymentSvc,
		repo:       p.Repo,
	}, nil
}

// RunOnce sweeps one batch of stale pending attempts.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	cutoff := s.clock.Now().Add(-s.cfg.MinAge)
	refs, err := s.repo.ListStalePending(ctx, s.db, cutoff, s.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	s.log.Info("sweeping stale payment attempts", zap.Int("count", len(refs)))

	var firstErr error
	for _, ref := range refs {
		outcome, err := s.paymentSvc.Reconcile(ctx, ref, "sweep")
		if err != nil {
			if errors.Is(err, paymentdomain.ErrReconcileContention) {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			s.log.Warn("sweep reconcile failed", zap.String("reference", ref), zap.Error(err))
			continue
		}
		s.log.Info("stale attempt swept",
			zap.String("reference", ref),
			zap.String("outcome", string(outcome.Kind)),
		)
	}
	return firstErr
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}
	}
}
