package econ

import (
	"time"

	"cosmossdk.io/math"

	"github.com/swarooppatilx/pledge/internal/model"
)

// PledgeMetrics is the full set of derived economics for one pledge.
// Presentation call sites consume this record instead of re-deriving
// any formula inline, so every surface shows the same numbers for the
// same snapshot.
type PledgeMetrics struct {
	Address           string      `json:"address"`
	Name              string      `json:"name"`
	Phase             model.Phase `json:"phase"`
	NeedsFinalization bool        `json:"needs_finalization"`
	ContributionOpen  bool        `json:"contribution_open"`

	ICOPrice           math.Int `json:"ico_price"`
	FloorPrice         math.Int `json:"floor_price"`
	PublicShares       math.Int `json:"public_shares"`
	CirculatingSupply  math.Int `json:"circulating_supply"`
	CirculatingBps     math.Int `json:"circulating_bps"`
	FundingGoal        math.Int `json:"funding_goal"`
	TotalRaised        math.Int `json:"total_raised"`
	FundingProgressBps math.Int `json:"funding_progress_bps"`
	VaultBalance       math.Int `json:"vault_balance"`

	AccruedYield        math.Int `json:"accrued_yield"`
	TotalYieldHarvested math.Int `json:"total_yield_harvested"`
	HarvestAvailable    bool     `json:"harvest_available"`

	Deadline  time.Time `json:"deadline"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Metrics derives the complete metrics record for a snapshot. The
// snapshot is validated first: corrupt ledger data surfaces as an
// error, never as silently computed zeros.
func Metrics(s model.PledgeSnapshot, now time.Time) (PledgeMetrics, error) {
	if err := Validate(s); err != nil {
		return PledgeMetrics{}, err
	}

	return PledgeMetrics{
		Address:           s.Address,
		Name:              s.Name,
		Phase:             s.Phase,
		NeedsFinalization: NeedsFinalization(s, now),
		ContributionOpen:  ContributionOpen(s, now),

		ICOPrice:           ICOPrice(s),
		FloorPrice:         FloorPrice(s),
		PublicShares:       PublicShares(s),
		CirculatingSupply:  CirculatingSupply(s),
		CirculatingBps:     CirculatingBps(s),
		FundingGoal:        s.FundingGoal,
		TotalRaised:        s.TotalRaised,
		FundingProgressBps: FundingProgressBps(s),
		VaultBalance:       s.VaultBalance,

		AccruedYield:        s.AccruedYield,
		TotalYieldHarvested: s.TotalYieldHarvested,
		HarvestAvailable:    HarvestAvailable(s),

		Deadline:  s.Deadline,
		FetchedAt: s.FetchedAt,
	}, nil
}
