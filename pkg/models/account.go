package models

type Account struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Unit     string `json:"unit,omitempty"`
	OpenedTS int64  `json:"opened_ts,omitempty"`
}

// Charge is an assessment against an account. Amount is a positive decimal
// string; sign is implied by the record kind, not stored.
type Charge struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	TS          int64  `json:"ts"`
	Description string `json:"description,omitempty"`
}

// Payment records money received against an account. CardInfo is the masked
// display string of the card used ("VISA ****1234"), denormalized so the
// ledger stays renderable after a card is deleted.
type Payment struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	TS          int64  `json:"ts"`
	Description string `json:"description,omitempty"`
	CardID      string `json:"card_id,omitempty"`
	CardInfo    string `json:"card_info,omitempty"`
}

// CreditCard stores masked card data only; the portal never sees a PAN.
type CreditCard struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
	AddedTS  int64  `json:"added_ts,omitempty"`
}

// Masked returns the card's display string.
func (c CreditCard) Masked() string {
	return c.Brand + " ****" + c.Last4
}
