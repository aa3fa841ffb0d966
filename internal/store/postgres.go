package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swarooppatilx/pledge/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of
// truth. Ledger amounts are stored as NUMERIC for exact precision and
// moved in and out as text.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UpsertSnapshot(ctx context.Context, snap *model.PledgeSnapshot) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pledges (address, name, founder_share_bps, funding_goal, deadline,
		                      total_raised, vault_balance, treasury_shares, phase,
		                      accrued_yield, total_yield_harvested, fetched_at)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9,
		         $10::NUMERIC, $11::NUMERIC, $12)
		 ON CONFLICT (address) DO UPDATE SET
		   name = EXCLUDED.name,
		   total_raised = EXCLUDED.total_raised,
		   vault_balance = EXCLUDED.vault_balance,
		   treasury_shares = EXCLUDED.treasury_shares,
		   phase = EXCLUDED.phase,
		   accrued_yield = EXCLUDED.accrued_yield,
		   total_yield_harvested = EXCLUDED.total_yield_harvested,
		   fetched_at = EXCLUDED.fetched_at`,
		snap.Address, snap.Name, snap.FounderShareBps,
		snap.FundingGoal.String(), snap.Deadline,
		snap.TotalRaised.String(), snap.VaultBalance.String(),
		snap.TreasuryShares.String(), string(snap.Phase),
		snap.AccruedYield.String(), snap.TotalYieldHarvested.String(),
		snap.FetchedAt,
	)
	return err
}

const snapshotColumns = `address, name, founder_share_bps,
	funding_goal::TEXT, deadline,
	total_raised::TEXT, vault_balance::TEXT, treasury_shares::TEXT,
	phase, accrued_yield::TEXT, total_yield_harvested::TEXT, fetched_at`

func (s *PostgresStore) GetSnapshot(ctx context.Context, address string) (*model.PledgeSnapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM pledges WHERE address = $1`, address)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get pledge %s: %w", address, err)
	}
	return snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context) ([]model.PledgeSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+snapshotColumns+` FROM pledges ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []model.PledgeSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (s *PostgresStore) ListAddresses(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT address FROM pledges ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

func (s *PostgresStore) InsertDividend(ctx context.Context, d *model.DividendDeposit) error {
	snapJSON, err := json.Marshal(d.Snapshot)
	if err != nil {
		return fmt.Errorf("encode deposit snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO dividends (id, pledge_address, amount, snapshot, deposited_at)
		 VALUES ($1, $2, $3::NUMERIC, $4::JSONB, $5)
		 ON CONFLICT (id) DO NOTHING`,
		d.ID, d.PledgeAddress, d.Amount.String(), snapJSON, d.DepositedAt,
	)
	return err
}

func (s *PostgresStore) ListDividends(ctx context.Context, pledge string) ([]model.DividendDeposit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pledge_address, amount::TEXT, snapshot, deposited_at
		 FROM dividends WHERE pledge_address = $1 ORDER BY deposited_at`, pledge)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []model.DividendDeposit
	for rows.Next() {
		var d model.DividendDeposit
		var amountS string
		var snapJSON []byte

		if err := rows.Scan(&d.ID, &d.PledgeAddress, &amountS, &snapJSON, &d.DepositedAt); err != nil {
			return nil, err
		}
		if d.Amount, err = parseNumeric(amountS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapJSON, &d.Snapshot); err != nil {
			return nil, fmt.Errorf("decode deposit snapshot: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// scanner covers both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*model.PledgeSnapshot, error) {
	var snap model.PledgeSnapshot
	var goal, raised, vault, treasury, accrued, harvested string
	var phase string

	if err := row.Scan(&snap.Address, &snap.Name, &snap.FounderShareBps,
		&goal, &snap.Deadline,
		&raised, &vault, &treasury,
		&phase, &accrued, &harvested, &snap.FetchedAt); err != nil {
		return nil, err
	}
	snap.Phase = model.Phase(phase)

	var err error
	if snap.FundingGoal, err = parseNumeric(goal); err != nil {
		return nil, err
	}
	if snap.TotalRaised, err = parseNumeric(raised); err != nil {
		return nil, err
	}
	if snap.VaultBalance, err = parseNumeric(vault); err != nil {
		return nil, err
	}
	if snap.TreasuryShares, err = parseNumeric(treasury); err != nil {
		return nil, err
	}
	if snap.AccruedYield, err = parseNumeric(accrued); err != nil {
		return nil, err
	}
	if snap.TotalYieldHarvested, err = parseNumeric(harvested); err != nil {
		return nil, err
	}
	return &snap, nil
}

func parseNumeric(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("store: malformed numeric %q", s)
	}
	return v, nil
}
