package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetDecimals is the fixed-point scale of the transferable asset. Session
// payloads carry human-decimal strings; settlement results carry raw base units
// that must be shifted down by this many places.
const AssetDecimals = 6

// AssetSymbol is the symbolic asset name used in session and allocation records.
const AssetSymbol = "usdc"

// Channel describes a previously funded bilateral channel between a wallet and
// the settlement node. Read-only to this engine.
type Channel struct {
	ChannelID   string          `json:"channel_id"`
	Participant string          `json:"participant"`
	Status      string          `json:"status"`
	Token       string          `json:"token"`
	Amount      decimal.Decimal `json:"amount"`
}

// ChannelStatusOpen is the only status a channel may have to fund a transfer.
const ChannelStatusOpen = "open"

// SessionDefinition describes an application session's governance: two
// participants, sender-weighted quorum so the sender can close unilaterally.
type SessionDefinition struct {
	Protocol     string   `json:"protocol"`
	Participants []string `json:"participants"`
	Weights      []int64  `json:"weights"`
	Quorum       int64    `json:"quorum"`
	Challenge    int64    `json:"challenge"`
	Nonce        int64    `json:"nonce"`
}

// Allocation is a per-participant, per-asset amount within a session.
// Amount is a human-decimal string, not raw base units.
type Allocation struct {
	Participant string `json:"participant"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
}

// AppSession is an ephemeral node-managed ledger scoped to two participants.
type AppSession struct {
	ID          string            `json:"app_session_id"`
	Definition  SessionDefinition `json:"definition"`
	Allocations []Allocation      `json:"allocations"`
}

// AuthPolicy is the structured record actually signed during authentication.
// The raw challenge alone is never signed.
type AuthPolicy struct {
	Challenge   string      `json:"challenge"`
	Scope       string      `json:"scope"`
	Wallet      string      `json:"wallet"`
	Application string      `json:"application"`
	Participant string      `json:"participant"`
	Expire      int64       `json:"expire"`
	Allowances  []Allowance `json:"allowances"`
}

// Allowance bounds what an authenticated session may spend per asset.
// Empty for the transfer flow.
type Allowance struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// Balance is one asset's ledger balance for a wallet.
type Balance struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

// AllocationRole tags a settled allocation row by which side of the transfer
// the participant was on.
type AllocationRole string

const (
	RoleSender    AllocationRole = "sender"
	RoleRecipient AllocationRole = "recipient"
)

// SettledAllocation is one row of a session's final, economically binding
// allocation. Amount is in raw base units as returned by the node; AssetAmount
// is the same value shifted into human units.
type SettledAllocation struct {
	Role        AllocationRole  `json:"role"`
	Participant string          `json:"participant"`
	Amount      decimal.Decimal `json:"amount"`
	AssetAmount decimal.Decimal `json:"usdcAmount"`
}

// SettledTransfer is the result of one completed transfer operation.
type SettledTransfer struct {
	SessionID    string              `json:"sessionId"`
	Allocations  []SettledAllocation `json:"allocations"`
	SessionToken string              `json:"-"`
	SettledAt    time.Time           `json:"settledAt"`
}

// TransferStatus is the lifecycle state of a persisted transfer record.
type TransferStatus string

const (
	TransferStatusSettled TransferStatus = "settled"
	TransferStatusFailed  TransferStatus = "failed"
)

// TransferRecord is the persisted history entry for one transfer attempt.
type TransferRecord struct {
	ID        string          `json:"id"`
	Sender    string          `json:"sender"`
	Receiver  string          `json:"receiver"`
	Amount    decimal.Decimal `json:"amount"`
	SessionID string          `json:"session_id,omitempty"`
	Status    TransferStatus  `json:"status"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
