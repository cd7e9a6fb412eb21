package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPurgeInterval = 15 * time.Minute

// RevocationPurger periodically removes revoked tokens that have expired on their own.
type RevocationPurger struct {
	store    RevocationStore
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewRevocationPurger(store RevocationStore, interval time.Duration, logger *zap.Logger) *RevocationPurger {
	if interval <= 0 {
		interval = defaultPurgeInterval
	}
	return &RevocationPurger{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// PurgeExpired runs one purge pass.
func (p *RevocationPurger) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := p.store.PurgeExpired(ctx, p.now())
	if err != nil {
		p.logger.Error("failed to purge revoked tokens", zap.Error(err))
		return 0, err
	}
	if removed > 0 {
		p.logger.Debug("purged expired revoked tokens", zap.Int64("removed", removed))
	}
	return removed, nil
}

func (p *RevocationPurger) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), p.interval)
				_, _ = p.PurgeExpired(ctx)
				cancel()
			case <-p.stop:
				return
			}
		}
	}()
}

func (p *RevocationPurger) Stop() {
	close(p.stop)
	p.wg.Wait()
}
