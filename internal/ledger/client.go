// Package ledger reads pledge state from the remote equity/vault
// contract through its HTTP gateway. The client is read-only: it
// fetches snapshots, holder accounts, and dividend events, and never
// submits transactions.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swarooppatilx/pledge/internal/config"
	"github.com/swarooppatilx/pledge/internal/model"
)

var (
	// ErrInvalidAddress is returned for addresses that are not 20-byte
	// hex strings.
	ErrInvalidAddress = errors.New("ledger: invalid pledge or holder address")

	// ErrNotFound is returned when the gateway has no pledge at the
	// given address.
	ErrNotFound = errors.New("ledger: pledge not found")

	// ErrBadPayload is returned when a gateway response cannot be
	// decoded into ledger amounts.
	ErrBadPayload = errors.New("ledger: malformed gateway payload")
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Client is the gateway client. Safe for concurrent use.
type Client struct {
	http          *resty.Client
	retries       uint
	retryInterval time.Duration
	concurrency   int
}

// NewClient builds a gateway client from config.
func NewClient(cfg *config.LedgerConfig) *Client {
	rc := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:          rc,
		retries:       cfg.MaxRetryTimes,
		retryInterval: cfg.RetryInterval,
		concurrency:   cfg.Concurrency,
	}
}

// snapshotPayload is the gateway wire form of a pledge snapshot.
// Amounts travel as decimal strings; the gateway's integers exceed
// float64 and JSON number precision.
type snapshotPayload struct {
	Address             string `json:"address"`
	Name                string `json:"name"`
	FounderShareBps     int64  `json:"founder_share_bps"`
	FundingGoal         string `json:"funding_goal"`
	Deadline            int64  `json:"deadline"` // unix seconds
	TotalRaised         string `json:"total_raised"`
	VaultBalance        string `json:"vault_balance"`
	TreasuryShares      string `json:"treasury_shares"`
	Phase               string `json:"phase"`
	AccruedYield        string `json:"accrued_yield"`
	TotalYieldHarvested string `json:"total_yield_harvested"`
}

type holderPayload struct {
	ShareBalance string `json:"share_balance"`
	Contribution string `json:"contribution"`
}

type dividendPayload struct {
	ID          string          `json:"id"`
	Amount      string          `json:"amount"`
	DepositedAt int64           `json:"deposited_at"` // unix seconds
	Snapshot    snapshotPayload `json:"snapshot"`
}

// Snapshot fetches the current snapshot of one pledge.
func (c *Client) Snapshot(ctx context.Context, address string) (model.PledgeSnapshot, error) {
	if !addressRe.MatchString(address) {
		return model.PledgeSnapshot{}, ErrInvalidAddress
	}

	payload, err := retry.DoWithData(
		func() (*snapshotPayload, error) {
			var p snapshotPayload
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&p).
				Get("/v1/pledges/" + address)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode() == http.StatusNotFound {
				return nil, retry.Unrecoverable(ErrNotFound)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("gateway status %d", resp.StatusCode())
			}
			return &p, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(c.retryInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return model.PledgeSnapshot{}, fmt.Errorf("fetch snapshot %s: %w", address, err)
	}

	return decodeSnapshot(*payload)
}

// Snapshots fetches many pledges concurrently, bounded by the
// configured concurrency. Successful fetches are returned even when
// others fail; the error joins every per-address failure.
func (c *Client) Snapshots(ctx context.Context, addresses []string) ([]model.PledgeSnapshot, error) {
	results := make([]*model.PledgeSnapshot, len(addresses))
	errs := make([]error, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, addr := range addresses {
		i, addr := i, addr
		g.Go(func() error {
			s, err := c.Snapshot(gctx, addr)
			if err != nil {
				errs[i] = err
				return nil // keep the rest of the batch going
			}
			results[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	snaps := make([]model.PledgeSnapshot, 0, len(addresses))
	for _, r := range results {
		if r != nil {
			snaps = append(snaps, *r)
		}
	}
	return snaps, errors.Join(errs...)
}

// HolderAccount fetches a holder's raw share balance and funding-phase
// contribution for one pledge.
func (c *Client) HolderAccount(ctx context.Context, pledge, holder string) (balance, contribution math.Int, err error) {
	if !addressRe.MatchString(pledge) || !addressRe.MatchString(holder) {
		return math.Int{}, math.Int{}, ErrInvalidAddress
	}

	payload, err := retry.DoWithData(
		func() (*holderPayload, error) {
			var p holderPayload
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&p).
				Get("/v1/pledges/" + pledge + "/holders/" + holder)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode() == http.StatusNotFound {
				return nil, retry.Unrecoverable(ErrNotFound)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("gateway status %d", resp.StatusCode())
			}
			return &p, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(c.retryInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return math.Int{}, math.Int{}, fmt.Errorf("fetch holder %s/%s: %w", pledge, holder, err)
	}

	balance, err = parseAmount(payload.ShareBalance)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	contribution, err = parseAmount(payload.Contribution)
	if err != nil {
		return math.Int{}, math.Int{}, err
	}
	return balance, contribution, nil
}

// Dividends fetches the dividend deposits recorded for a pledge, each
// with its deposit-time snapshot. Deposits without a gateway id get a
// locally generated one.
func (c *Client) Dividends(ctx context.Context, pledge string) ([]model.DividendDeposit, error) {
	if !addressRe.MatchString(pledge) {
		return nil, ErrInvalidAddress
	}

	payloads, err := retry.DoWithData(
		func() ([]dividendPayload, error) {
			var ps []dividendPayload
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&ps).
				Get("/v1/pledges/" + pledge + "/dividends")
			if err != nil {
				return nil, err
			}
			if resp.StatusCode() == http.StatusNotFound {
				return nil, retry.Unrecoverable(ErrNotFound)
			}
			if resp.IsError() {
				return nil, fmt.Errorf("gateway status %d", resp.StatusCode())
			}
			return ps, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(c.retryInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch dividends %s: %w", pledge, err)
	}

	deposits := make([]model.DividendDeposit, 0, len(payloads))
	for _, p := range payloads {
		amount, err := parseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot(p.Snapshot)
		if err != nil {
			return nil, err
		}
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		deposits = append(deposits, model.DividendDeposit{
			ID:            id,
			PledgeAddress: pledge,
			Amount:        amount,
			Snapshot:      snap,
			DepositedAt:   time.Unix(p.DepositedAt, 0).UTC(),
		})
	}
	return deposits, nil
}

func decodeSnapshot(p snapshotPayload) (model.PledgeSnapshot, error) {
	s := model.PledgeSnapshot{
		Address:         p.Address,
		Name:            p.Name,
		FounderShareBps: p.FounderShareBps,
		Deadline:        time.Unix(p.Deadline, 0).UTC(),
		Phase:           model.Phase(p.Phase),
		FetchedAt:       time.Now().UTC(),
	}

	var err error
	if s.FundingGoal, err = parseAmount(p.FundingGoal); err != nil {
		return model.PledgeSnapshot{}, err
	}
	if s.TotalRaised, err = parseAmount(p.TotalRaised); err != nil {
		return model.PledgeSnapshot{}, err
	}
	if s.VaultBalance, err = parseAmount(p.VaultBalance); err != nil {
		return model.PledgeSnapshot{}, err
	}
	if s.TreasuryShares, err = parseAmount(p.TreasuryShares); err != nil {
		return model.PledgeSnapshot{}, err
	}
	if s.AccruedYield, err = parseAmount(p.AccruedYield); err != nil {
		return model.PledgeSnapshot{}, err
	}
	if s.TotalYieldHarvested, err = parseAmount(p.TotalYieldHarvested); err != nil {
		return model.PledgeSnapshot{}, err
	}
	return s, nil
}

func parseAmount(s string) (math.Int, error) {
	if s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("%w: amount %q", ErrBadPayload, s)
	}
	return v, nil
}
