package service

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"donation-service/internal/repository"
)

// ActivityMonitor periodically reports donation activity: each tick it
// fetches donations created since the last one, sums their amounts, and
// logs count and volume. It only ever reads; totals are maintained by
// the Aggregator alone.
type ActivityMonitor struct {
	ctx      context.Context
	cancel   context.CancelFunc
	repo     repository.DonationRepository
	logger   *slog.Logger
	lastSeen time.Time
	started  bool
	interval time.Duration
}

func NewActivityMonitor(ctx context.Context, repo repository.DonationRepository, logger *slog.Logger, interval time.Duration) *ActivityMonitor {
	ctx, cancel := context.WithCancel(ctx)
	return &ActivityMonitor{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		logger:   logger,
		interval: interval,
	}
}

func (m *ActivityMonitor) Stop() {
	m.cancel()
}

func (m *ActivityMonitor) Start() {
	if m.started {
		return
	}
	m.started = true
	m.lastSeen = time.Now().UTC()

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				m.logger.Info("activity monitor stopped")
				return
			case <-ticker.C:
				m.report()
			}
		}
	}()
}

// report pages through every donation created since the cursor; a busy
// interval can outgrow one repository page.
func (m *ActivityMonitor) report() {
	var (
		count  int
		volume = big.NewInt(0)
		newest time.Time
	)
	for offset := 0; ; offset += repository.PageSize {
		donations, err := m.repo.FindDonations(m.ctx, repository.DonationFilter{
			CreatedAfter: m.lastSeen,
			Offset:       offset,
		})
		if err != nil {
			m.logger.Error("activity monitor fetch failed", "error", err)
			return
		}
		if len(donations) == 0 {
			break
		}
		if offset == 0 {
			// newest first; the head of the first page is the new cursor
			newest = donations[0].CreatedAt
		}

		for _, donation := range donations {
			amount, err := parseAmount(donation.Amount)
			if err != nil {
				m.logger.Error("unreadable donation amount", "donation_id", donation.ID, "error", err)
				continue
			}
			volume.Add(volume, amount)
		}
		count += len(donations)

		if len(donations) < repository.PageSize {
			break
		}
	}
	if count == 0 {
		return
	}

	m.lastSeen = newest
	m.logger.Info("donation activity",
		"count", count,
		"volume", volume.String(),
		"since", m.lastSeen.Format(time.RFC3339),
	)
}
