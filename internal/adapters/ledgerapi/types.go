package ledgerapi

// Wire types for the budgeting service API.

type transactionsResponse struct {
	Data struct {
		Transactions []transactionWire `json:"transactions"`
	} `json:"data"`
}

// transactionWire is one transaction as the service returns it. Amounts are
// signed minor units (cents), expenses negative.
type transactionWire struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo"`
	Cleared   string `json:"cleared"` // cleared, uncleared, reconciled
	Approved  bool   `json:"approved"`
}

type updateMemoRequest struct {
	Transaction updateMemoBody `json:"transaction"`
}

type updateMemoBody struct {
	Memo string `json:"memo"`
}
