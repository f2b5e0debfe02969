package domain

const (
	PlanKing   = "King"
	PlanQueen  = "Queen"
	PlanBishop = "Bishop"
	PlanKnight = "Knight"
)

// Plans in display order.
var Plans = []string{PlanKing, PlanQueen, PlanBishop, PlanKnight}

const (
	TxTypeDeposit  = "DEPOSIT"
	TxTypePayout   = "PAYOUT"
	TxTypeReferral = "REFERRAL"
	TxTypeEarning  = "EARNING"
)

const (
	TxStatusPending      = "PENDING"
	TxStatusConfirmed    = "CONFIRMED"
	TxStatusRejected     = "REJECTED"
	TxStatusCompleted    = "COMPLETED"
	TxStatusConsolidated = "CONSOLIDATED"
)

var TransactionStatuses = []string{
	TxStatusPending,
	TxStatusConfirmed,
	TxStatusRejected,
	TxStatusCompleted,
	TxStatusConsolidated,
}

// Transaction reference prefixes.
const (
	RefPrefixDeposit  = "DEP"
	RefPrefixPayout   = "PAY"
	RefPrefixEarning  = "EARN"
	RefPrefixReferral = "REF"
)

const (
	TriangleOpen          = "OPEN"
	TriangleFull          = "FULL"
	TrianglePayoutPending = "PAYOUT_PENDING"
	TriangleSettled       = "PAYOUT_SETTLED"
)

const (
	PositionsPerTriangle = 15
	// LockedLoginAttempts is the counter value at which login is refused.
	LockedLoginAttempts = 5
)

const (
	UserActionSuspend  = "suspend"
	UserActionActivate = "activate"
	UserActionDelete   = "delete"
)

const (
	UserStatusActive    = "active"
	UserStatusLocked    = "locked"
	UserStatusSuspended = "suspended"
)

// System setting keys.
const (
	SettingDepositWallet        = "deposit_wallet"
	SettingDepositCoin          = "deposit_coin"
	SettingDepositNetwork       = "deposit_network"
	SettingReferralBonusPercent = "referral_bonus_percent"
)

const (
	NotifyDepositConfirmed = "DEPOSIT_CONFIRMED"
	NotifyPayoutCompleted  = "PAYOUT_COMPLETED"
	NotifyTransaction      = "TRANSACTION_UPDATED"
	NotifyPlaced           = "TRIANGLE_PLACED"
	NotifyTriangleFull     = "TRIANGLE_FULL"
	NotifyPayoutSettled    = "TRIANGLE_PAYOUT_SETTLED"
	NotifyReferralBonus    = "REFERRAL_BONUS"
)
