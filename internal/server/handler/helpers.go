package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"staking-ledger/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps a ledger error to an HTTP response. RevertError kinds
// carry their verbatim reason string; anything else is an internal error.
func writeLedgerError(w http.ResponseWriter, err error) {
	var revert *domain.RevertError
	if errors.As(err, &revert) {
		writeJSON(w, revertStatus(revert.Kind), map[string]string{
			"error": revert.Reason,
			"kind":  string(revert.Kind),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func revertStatus(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindAccessDenied:
		return http.StatusForbidden
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindState, domain.KindResource:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// parsePositionID extracts the {id} path parameter as a position id.
func parsePositionID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// parseWallet validates and parses a hex wallet address.
func parseWallet(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.New("invalid wallet address")
	}
	return common.HexToAddress(s), nil
}

// positionResponse is the JSON shape of a position record. Wei amounts are
// decimal strings so values above 2^53 survive JSON round-trips.
type positionResponse struct {
	PositionID      uint64 `json:"positionId"`
	WalletAddress   string `json:"walletAddress"`
	CreateDate      int64  `json:"createDate"`
	UnlockDate      int64  `json:"unlockDate"`
	PercentInterest uint64 `json:"percentInterest"`
	WeiStaked       string `json:"weiStaked"`
	WeiInterest     string `json:"weiInterest"`
	Open            bool   `json:"open"`
}

func toPositionResponse(p *domain.Position) positionResponse {
	return positionResponse{
		PositionID:      p.PositionID,
		WalletAddress:   p.WalletAddress.Hex(),
		CreateDate:      p.CreateDate,
		UnlockDate:      p.UnlockDate,
		PercentInterest: p.PercentInterest,
		WeiStaked:       p.WeiStaked.String(),
		WeiInterest:     p.WeiInterest.String(),
		Open:            p.Open,
	}
}
