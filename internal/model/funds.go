package model

// TransactionType is the kind of funds movement recorded in the ledger.
type TransactionType string

const (
	TransactionAddFunds TransactionType = "Add Funds"
	TransactionWithdraw TransactionType = "Withdraw"
)

// TransactionStatus is the settlement status of a funds transaction.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "Success"
	StatusPending TransactionStatus = "Pending"
)

// DateLayout is the calendar date format of FundsTransaction.Date.
const DateLayout = "2006-01-02"

// FundsTransaction is one append-only entry of the funds ledger.
// ID is strictly increasing in creation order.
type FundsTransaction struct {
	ID            int64             `json:"id"`
	Date          string            `json:"date"`
	Type          TransactionType   `json:"type"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	PaymentMethod string            `json:"paymentMethod,omitempty"`
}

// FundsTotals are derived from the ledger balance and the current holdings.
// They are never stored.
type FundsTotals struct {
	AvailableBalance float64 `json:"availableBalance"`
	InvestedAmount   float64 `json:"investedAmount"`
	CurrentValue     float64 `json:"currentValue"`
	TotalPortfolio   float64 `json:"totalPortfolio"`
	ProfitLoss       float64 `json:"profitLoss"`
}

// TransactionLine is a ledger entry with its display amount.
type TransactionLine struct {
	FundsTransaction
	AmountDisplay string `json:"amountDisplay"`
}

// DistributionSlice is one entry of the fund distribution chart.
type DistributionSlice struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// FundsView is the response of the funds endpoint.
type FundsView struct {
	FundsTotals
	Display      map[string]string   `json:"display"`
	Transactions []TransactionLine   `json:"transactions"`
	Distribution []DistributionSlice `json:"distribution"`
	Source       SnapshotSource      `json:"source"`
}
