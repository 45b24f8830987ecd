package trading

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	scouterr "github.com/talentscout/scout/pkg/errors"
)

// Side is the direction of a trade.
type Side string

// Trade sides.
const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide parses "buy" or "sell".
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", scouterr.WithDetails(scouterr.ErrInvalidInput, map[string]string{"side": s})
	}
}

// Request is one trade. Amount is a decimal string: the native currency to
// pay for a buy, or the number of tokens for a sell.
type Request struct {
	Side   Side
	Token  common.Address
	Amount string
	Wait   bool
}

// Result is the outcome of a trade.
type Result struct {
	Side        Side   `json:"side"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	Token       string `json:"token"`
	Amount      string `json:"amount"`
	AmountWei   string `json:"amount_wei"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	GasUsed     uint64 `json:"gas_used,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
}

// Trade statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)
