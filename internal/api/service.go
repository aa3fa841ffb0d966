package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/swarooppatilx/pledge/internal/econ"
	"github.com/swarooppatilx/pledge/internal/ledger"
	"github.com/swarooppatilx/pledge/internal/metrics"
	"github.com/swarooppatilx/pledge/internal/model"
	"github.com/swarooppatilx/pledge/internal/rank"
	"github.com/swarooppatilx/pledge/internal/store"
)

// LedgerReader is the subset of the ledger gateway the API needs for
// per-holder queries. The poller owns snapshot ingestion; handlers only
// reach the ledger for data that is not cached per pledge.
type LedgerReader interface {
	HolderAccount(ctx context.Context, pledge, holder string) (balance, contribution math.Int, err error)
}

// Service wires the HTTP handlers to the store, ledger gateway and
// WebSocket hub.
type Service struct {
	store  store.Store
	ledger LedgerReader
	hub    *Hub

	holderConcurrency int
}

// NewService creates the API service. holderConcurrency bounds the
// parallel ledger fan-out when assembling portfolios.
func NewService(st store.Store, lg LedgerReader, hub *Hub, holderConcurrency int) *Service {
	if holderConcurrency <= 0 {
		holderConcurrency = 8
	}
	return &Service{store: st, ledger: lg, hub: hub, holderConcurrency: holderConcurrency}
}

// Routes mounts all API endpoints on the given router.
func (s *Service) Routes(r chi.Router) {
	r.Get("/pledges", s.handleListPledges)
	r.Get("/pledges/{address}", s.handleGetPledge)
	r.Get("/pledges/{address}/holders/{holder}", s.handleGetHolder)
	r.Post("/pledges/{address}/preview/redeem", s.handlePreviewRedeem)
	r.Post("/pledges/{address}/preview/contribute", s.handlePreviewContribute)
	r.Post("/pledges/{address}/preview/treasury-buy", s.handlePreviewTreasuryBuy)
	r.Get("/pledges/{address}/dividends", s.handleDividends)
	r.Get("/portfolio/{holder}", s.handlePortfolio)
	r.Get("/leaderboard", s.handleLeaderboard)
	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// parseAmount decodes a decimal string from a request body field.
func parseAmount(s string) (math.Int, error) {
	if s == "" {
		return math.Int{}, errors.New("missing amount")
	}
	n, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, errors.New("malformed amount")
	}
	return n, nil
}

// pledgeView is a list/detail entry combining the stored snapshot with
// derived economics.
type pledgeView struct {
	model.PledgeSnapshot
	Metrics econ.PledgeMetrics `json:"metrics"`
}

type listResponse struct {
	Pledges []pledgeView `json:"pledges"`
	Totals  rank.Totals  `json:"totals"`
}

// handleListPledges handles GET /api/v1/pledges.
// Query params: phase (funding|active|failed), needs_finalization=true,
// sort (vault|raised|progress|circulating).
func (s *Service) handleListPledges(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pledges")
		return
	}
	now := time.Now().UTC()

	if p := r.URL.Query().Get("phase"); p != "" {
		phase := model.Phase(p)
		if !phase.Valid() {
			writeError(w, http.StatusBadRequest, "invalid phase filter")
			return
		}
		snaps = rank.FilterPhase(snaps, phase)
	}
	if r.URL.Query().Get("needs_finalization") == "true" {
		snaps = rank.FilterNeedsFinalization(snaps, now)
	}

	key := rank.ByVault
	if k := r.URL.Query().Get("sort"); k != "" {
		key = rank.SortKey(k)
		if !key.Valid() {
			writeError(w, http.StatusBadRequest, "invalid sort key")
			return
		}
	}
	snaps = rank.Sort(snaps, key)

	views := make([]pledgeView, 0, len(snaps))
	for _, snap := range snaps {
		m, err := econ.Metrics(snap, now)
		if err != nil {
			// A corrupt snapshot must not hide the rest of the list,
			// but it must not be silently rendered as zeros either.
			slog.Error("invalid pledge state", "pledge", snap.Address, "err", err)
			continue
		}
		views = append(views, pledgeView{PledgeSnapshot: snap, Metrics: m})
	}

	writeJSON(w, http.StatusOK, listResponse{
		Pledges: views,
		Totals:  rank.Summarize(snaps, now),
	})
}

// handleGetPledge handles GET /api/v1/pledges/{address}.
func (s *Service) handleGetPledge(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	snap, err := s.store.GetSnapshot(r.Context(), address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pledge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pledge")
		return
	}
	m, err := econ.Metrics(*snap, time.Now().UTC())
	if err != nil {
		slog.Error("invalid pledge state", "pledge", address, "err", err)
		writeError(w, http.StatusInternalServerError, "pledge state failed validation: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pledgeView{PledgeSnapshot: *snap, Metrics: m})
}

// handleGetHolder handles GET /api/v1/pledges/{address}/holders/{holder}.
func (s *Service) handleGetHolder(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	holder := chi.URLParam(r, "holder")

	snap, err := s.store.GetSnapshot(r.Context(), address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pledge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pledge")
		return
	}

	balance, contribution, err := s.ledger.HolderAccount(r.Context(), address, holder)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "holder has no account on this pledge")
			return
		}
		if errors.Is(err, ledger.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid holder address")
			return
		}
		writeError(w, http.StatusBadGateway, "ledger query failed")
		return
	}

	deposits, err := s.store.ListDividends(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dividends")
		return
	}

	pos, err := econ.BuildPosition(*snap, holder, balance, contribution, deposits)
	if err != nil {
		slog.Error("invalid pledge state", "pledge", address, "err", err)
		writeError(w, http.StatusInternalServerError, "pledge state failed validation: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type previewRedeemRequest struct {
	Shares string `json:"shares"`
	Holder string `json:"holder,omitempty"`
}

type previewRedeemResponse struct {
	Shares          string               `json:"shares"`
	Payout          string               `json:"payout"`
	FloorPriceAfter string               `json:"floor_price_after"`
	After           model.PledgeSnapshot `json:"after"`
}

// handlePreviewRedeem handles POST /api/v1/pledges/{address}/preview/redeem.
// When a holder address is supplied the requested amount is checked
// against their live share balance.
func (s *Service) handlePreviewRedeem(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req previewRedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.PreviewsTotal.WithLabelValues("redeem", "error").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues("redeem", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.store.GetSnapshot(r.Context(), address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pledge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pledge")
		return
	}

	if req.Holder != "" {
		balance, _, err := s.ledger.HolderAccount(r.Context(), address, req.Holder)
		if err != nil && !errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusBadGateway, "ledger query failed")
			return
		}
		if errors.Is(err, ledger.ErrNotFound) {
			balance = math.ZeroInt()
		}
		if err := econ.ValidateRedeemAmount(shares, balance); err != nil {
			metrics.PreviewsTotal.WithLabelValues("redeem", "rejected").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	preview, err := econ.SimulateRedemption(*snap, shares)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues("redeem", "rejected").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.PreviewsTotal.WithLabelValues("redeem", "ok").Inc()

	writeJSON(w, http.StatusOK, previewRedeemResponse{
		Shares:          preview.Shares.String(),
		Payout:          preview.Payout.String(),
		FloorPriceAfter: econ.FloorPrice(preview.After).String(),
		After:           preview.After,
	})
}

type previewContributeRequest struct {
	Amount string `json:"amount"`
}

type previewContributeResponse struct {
	Amount    string               `json:"amount"`
	SharesOut string               `json:"shares_out"`
	After     model.PledgeSnapshot `json:"after"`
}

// handlePreviewContribute handles POST /api/v1/pledges/{address}/preview/contribute.
func (s *Service) handlePreviewContribute(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req previewContributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.PreviewsTotal.WithLabelValues("contribute", "error").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues("contribute", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.store.GetSnapshot(r.Context(), address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pledge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pledge")
		return
	}

	preview, err := econ.SimulateContribution(*snap, amount, time.Now().UTC())
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues("contribute", "rejected").Inc()
		status := http.StatusBadRequest
		if errors.Is(err, econ.ErrContributionClosed) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	metrics.PreviewsTotal.WithLabelValues("contribute", "ok").Inc()

	writeJSON(w, http.StatusOK, previewContributeResponse{
		Amount:    preview.Amount.String(),
		SharesOut: preview.SharesOut.String(),
		After:     preview.After,
	})
}

type previewTreasuryBuyRequest struct {
	Shares string `json:"shares"`
}

type previewTreasuryBuyResponse struct {
	Shares  string `json:"shares"`
	Cost    string `json:"cost"`
	MaxCost string `json:"max_cost"`
}

// handlePreviewTreasuryBuy handles POST /api/v1/pledges/{address}/preview/treasury-buy.
// MaxCost adds a 1% buffer over the quoted cost so callers can bound a
// transaction against price movement between quote and execution.
func (s *Service) handlePreviewTreasuryBuy(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	var req previewTreasuryBuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.PreviewsTotal.WithLabelValues("treasury_buy", "error").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues("treasury_buy", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !shares.IsPositive() {
		metrics.PreviewsTotal.WithLabelValues("treasury_buy", "rejected").Inc()
		writeError(w, http.StatusBadRequest, "shares must be positive")
		return
	}

	snap, err := s.store.GetSnapshot(r.Context(), address)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "pledge not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pledge")
		return
	}
	if shares.GT(snap.TreasuryShares) {
		metrics.PreviewsTotal.WithLabelValues("treasury_buy", "rejected").Inc()
		writeError(w, http.StatusBadRequest, "treasury holds fewer shares than requested")
		return
	}

	cost := econ.TreasuryBuyCost(*snap, shares)
	maxCost := cost.MulRaw(101).QuoRaw(100)
	metrics.PreviewsTotal.WithLabelValues("treasury_buy", "ok").Inc()

	writeJSON(w, http.StatusOK, previewTreasuryBuyResponse{
		Shares:  shares.String(),
		Cost:    cost.String(),
		MaxCost: maxCost.String(),
	})
}

type dividendView struct {
	model.DividendDeposit
	HolderShare string `json:"holder_share,omitempty"`
}

// handleDividends handles GET /api/v1/pledges/{address}/dividends.
// With ?holder=ADDR each deposit carries the holder's pro-rata share,
// computed against the circulating supply captured at deposit time.
func (s *Service) handleDividends(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	deposits, err := s.store.ListDividends(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dividends")
		return
	}

	var balance math.Int
	holder := r.URL.Query().Get("holder")
	if holder != "" {
		b, _, err := s.ledger.HolderAccount(r.Context(), address, holder)
		if err != nil && !errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusBadGateway, "ledger query failed")
			return
		}
		if errors.Is(err, ledger.ErrNotFound) {
			b = math.ZeroInt()
		}
		balance = b
	}

	views := make([]dividendView, 0, len(deposits))
	for _, dep := range deposits {
		v := dividendView{DividendDeposit: dep}
		if holder != "" {
			v.HolderShare = econ.DividendShare(dep, balance).String()
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"dividends": views})
}

// handlePortfolio handles GET /api/v1/portfolio/{holder}. Holder
// accounts are fetched from the ledger concurrently; pledges where the
// holder has no shares and no contribution are omitted.
func (s *Service) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	holder := chi.URLParam(r, "holder")

	snaps, err := s.store.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pledges")
		return
	}

	var (
		mu        sync.Mutex
		positions []model.HolderPosition
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.holderConcurrency)
	for _, snap := range snaps {
		snap := snap
		g.Go(func() error {
			balance, contribution, err := s.ledger.HolderAccount(ctx, snap.Address, holder)
			if errors.Is(err, ledger.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if balance.IsZero() && contribution.IsZero() {
				return nil
			}
			deposits, err := s.store.ListDividends(ctx, snap.Address)
			if err != nil {
				return err
			}
			pos, err := econ.BuildPosition(snap, holder, balance, contribution, deposits)
			if err != nil {
				slog.Error("invalid pledge state", "pledge", snap.Address, "err", err)
				return nil
			}
			mu.Lock()
			positions = append(positions, pos)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ledger.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid holder address")
			return
		}
		writeError(w, http.StatusBadGateway, "ledger query failed")
		return
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].PledgeAddress < positions[j].PledgeAddress
	})

	writeJSON(w, http.StatusOK, rank.Portfolio(holder, positions))
}

type leaderboardEntry struct {
	Rank int `json:"rank"`
	pledgeView
}

// handleLeaderboard handles GET /api/v1/leaderboard?by=KEY.
func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pledges")
		return
	}

	key := rank.ByVault
	if k := r.URL.Query().Get("by"); k != "" {
		key = rank.SortKey(k)
		if !key.Valid() {
			writeError(w, http.StatusBadRequest, "invalid ranking key")
			return
		}
	}
	snaps = rank.Sort(snaps, key)

	now := time.Now().UTC()
	entries := make([]leaderboardEntry, 0, len(snaps))
	for _, snap := range snaps {
		m, err := econ.Metrics(snap, now)
		if err != nil {
			slog.Error("invalid pledge state", "pledge", snap.Address, "err", err)
			continue
		}
		entries = append(entries, leaderboardEntry{
			Rank:       len(entries) + 1,
			pledgeView: pledgeView{PledgeSnapshot: snap, Metrics: m},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"by": string(key), "leaderboard": entries})
}
