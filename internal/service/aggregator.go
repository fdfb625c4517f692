package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"donation-service/internal/model"
	"donation-service/internal/repository"
	"donation-service/internal/schema"
)

// OutcomeStatus classifies what the aggregation step did with a
// donation.
type OutcomeStatus string

const (
	OutcomeApplied OutcomeStatus = "applied"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the best-effort result of one aggregation. A Failed
// outcome never fails the donation create; the caller logs it and the
// target's totals simply do not reflect the donation.
type Outcome struct {
	Status   OutcomeStatus
	Store    schema.Store
	TargetID string
	Reason   string
}

// Aggregator folds a newly created donation's amount and count into its
// target entity's running totals. Updates to one target are serialized
// behind a per-target lock, so concurrent donations to the same
// campaign cannot lose each other's read-modify-write.
type Aggregator struct {
	store repository.EntityStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAggregator(store repository.EntityStore) *Aggregator {
	return &Aggregator{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Apply resolves the donation's aggregate target and folds the amount
// in. Owner-type resolution wins over the delegate flag: a campaign or
// milestone owner is updated even when the donation also carries a
// delegate, and exactly one target is ever updated per donation.
func (a *Aggregator) Apply(ctx context.Context, donation model.Donation) Outcome {
	store, targetID := aggregateTarget(donation)
	if store == "" {
		return Outcome{Status: OutcomeSkipped, Reason: "no aggregate target"}
	}
	outcome := Outcome{Store: store, TargetID: targetID}

	amount, err := parseAmount(donation.Amount)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	unlock := a.lockTarget(string(store) + "/" + targetID)
	defer unlock()

	entity, err := a.store.GetEntity(ctx, store, schema.FieldID, targetID)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	count, total := runningTotals(entity)
	newTotal, err := addTotal(total, amount)
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	_, err = a.store.PatchEntity(ctx, store, targetID, map[schema.Field]any{
		schema.FieldDonationCount: count + 1,
		schema.FieldTotalDonated:  newTotal,
	})
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = OutcomeApplied
	return outcome
}

// aggregateTarget picks the single store/id pair a donation contributes
// to: campaign or milestone owners first, then the delegation pool for
// delegated donations. Anything else has no aggregate target and the
// step is a no-op.
func aggregateTarget(donation model.Donation) (schema.Store, string) {
	switch {
	case donation.OwnerType == model.OwnerCampaign:
		return schema.StoreCampaigns, donation.OwnerID
	case donation.OwnerType == model.OwnerMilestone:
		return schema.StoreMilestones, donation.OwnerID
	case donation.Delegate:
		return schema.StoreDelegationPools, donation.DelegateID
	default:
		return "", ""
	}
}

func (a *Aggregator) lockTarget(key string) func() {
	a.mu.Lock()
	lock, ok := a.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[key] = lock
	}
	a.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func runningTotals(entity model.Entity) (int64, string) {
	switch e := entity.(type) {
	case *model.Campaign:
		return e.DonationCount, e.TotalDonated
	case *model.Milestone:
		return e.DonationCount, e.TotalDonated
	case *model.DelegationPool:
		return e.DonationCount, e.TotalDonated
	default:
		return 0, ""
	}
}

// parseAmount reads a non-negative arbitrary-precision integer from its
// decimal-string encoding. Totals legitimately exceed the 64-bit range,
// so nothing here ever passes through machine-word arithmetic.
func parseAmount(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("service: amount %q is not a decimal integer", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("service: amount %q is negative", s)
	}
	return n, nil
}

// addTotal folds an amount into a running total. An entity that has
// never received a donation carries an empty total, read as zero.
func addTotal(total string, amount *big.Int) (string, error) {
	base := big.NewInt(0)
	if total != "" {
		var err error
		base, err = parseAmount(total)
		if err != nil {
			return "", err
		}
	}
	return new(big.Int).Add(base, amount).String(), nil
}
