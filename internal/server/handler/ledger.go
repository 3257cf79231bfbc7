package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"staking-ledger/internal/ledger"
)

// LedgerHandler exposes the staking ledger's public operation surface over
// JSON/HTTP. Mutating endpoints take the caller wallet in the request body;
// the ledger enforces owner and creator checks against it.
type LedgerHandler struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(l *ledger.Ledger, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: l, logger: logger}
}

type stakeRequest struct {
	Wallet         string `json:"wallet"`
	LockPeriodDays uint64 `json:"lockPeriodDays"`
	AmountWei      string `json:"amountWei"`
}

// Stake creates a new position.
// POST /api/stake
func (h *LedgerHandler) Stake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := parseWallet(req.Wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmountWei(req.AmountWei)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	position, err := h.ledger.StakeEther(r.Context(), wallet, req.LockPeriodDays, amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "stake rejected",
			slog.String("wallet", wallet.Hex()),
			slog.Uint64("lock_days", req.LockPeriodDays),
			slog.String("error", err.Error()),
		)
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPositionResponse(position))
}

type closeRequest struct {
	Wallet string `json:"wallet"`
}

// Close closes a position and reports the payout.
// POST /api/positions/{id}/close
func (h *LedgerHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := parseWallet(req.Wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payout, err := h.ledger.ClosePosition(r.Context(), wallet, id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"positionId": id,
		"payoutWei":  payout.String(),
	})
}

type modifyLockPeriodsRequest struct {
	Wallet  string `json:"wallet"`
	Days    uint64 `json:"days"`
	RateBps uint64 `json:"rateBps"`
}

// ModifyLockPeriods upserts a tier. Owner only.
// POST /api/lock-periods
func (h *LedgerHandler) ModifyLockPeriods(w http.ResponseWriter, r *http.Request) {
	var req modifyLockPeriodsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := parseWallet(req.Wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.ModifyLockPeriods(r.Context(), wallet, req.Days, req.RateBps); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":    req.Days,
		"rateBps": req.RateBps,
	})
}

type changeUnlockDateRequest struct {
	Wallet     string `json:"wallet"`
	UnlockDate int64  `json:"unlockDate"`
}

// ChangeUnlockDate overwrites a position's unlock date. Owner only.
// PUT /api/positions/{id}/unlock-date
func (h *LedgerHandler) ChangeUnlockDate(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	var req changeUnlockDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := parseWallet(req.Wallet)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.ChangeUnlockDate(r.Context(), wallet, id, req.UnlockDate); err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"positionId": id,
		"unlockDate": req.UnlockDate,
	})
}

// GetPosition returns the position record for an id. Unassigned ids read back
// as a zeroed record with open=false rather than 404.
// GET /api/positions/{id}
func (h *LedgerHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	position, err := h.ledger.PositionByID(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionResponse(position))
}

// ListPositionIDs returns the ordered position ids for a wallet.
// GET /api/positions?wallet=0x...
func (h *LedgerHandler) ListPositionIDs(w http.ResponseWriter, r *http.Request) {
	wallet, err := parseWallet(r.URL.Query().Get("wallet"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := h.ledger.PositionIDsForAddress(r.Context(), wallet)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":      wallet.Hex(),
		"positionIds": ids,
	})
}

// ListLockPeriods returns the lock-period list with current rates, in
// insertion order.
// GET /api/lock-periods
func (h *LedgerHandler) ListLockPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.ledger.LockPeriods(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	type tierResponse struct {
		Days    uint64 `json:"days"`
		RateBps uint64 `json:"rateBps"`
	}
	tiers := make([]tierResponse, 0, len(periods))
	for _, days := range periods {
		rate, err := h.ledger.InterestRate(r.Context(), days)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		tiers = append(tiers, tierResponse{Days: days, RateBps: rate})
	}

	writeJSON(w, http.StatusOK, map[string]any{"lockPeriods": tiers})
}

// GetInterestRate returns the rate for one lock period, 0 when unsupported.
// GET /api/interest-rate/{days}
func (h *LedgerHandler) GetInterestRate(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.ParseUint(r.PathValue("days"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lock period")
		return
	}

	rate, err := h.ledger.InterestRate(r.Context(), days)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":    days,
		"rateBps": rate,
	})
}

// Status reports the ledger-level counters: owner, next position id, pooled
// balance.
// GET /api/ledger
func (h *LedgerHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, err := h.ledger.Owner(ctx)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	next, err := h.ledger.CurrentPositionID(ctx)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	balance, err := h.ledger.PoolBalance(ctx)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"owner":             owner.Hex(),
		"currentPositionId": next,
		"poolBalanceWei":    balance.String(),
	})
}

// parseAmountWei parses a non-negative decimal wei string. Empty means zero.
func parseAmountWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errors.New("amountWei must be a non-negative decimal string")
	}
	return v, nil
}
