package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// Kind tags a ledger entry as money owed or money received.
type Kind string

const (
	KindCharge  Kind = "charge"
	KindPayment Kind = "payment"
)

// Entry is one row of an account's ledger with the running balance the
// account stood at after this entry was applied.
type Entry struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	TS          int64           `json:"ts"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     string          `json:"balance"`
}

// YearGroup holds the entries of a single calendar year in display order.
type YearGroup struct {
	Year    int     `json:"year"`
	Entries []Entry `json:"entries"`
}

// Build merges charges and payments into a single ledger in accumulation
// order: ascending by timestamp, charges before payments on equal stamps.
// The running balance is carried at full precision; each entry gets the
// balance after it, rounded to two decimal places half up. Records whose
// amount does not parse or is not positive, or whose timestamp is zero,
// are skipped.
func Build(charges []models.Charge, payments []models.Payment) []Entry {
	entries := make([]Entry, 0, len(charges)+len(payments))
	for _, c := range charges {
		amt, err := decimal.NewFromString(c.Amount)
		if err != nil || amt.Sign() <= 0 || c.TS == 0 {
			logger.Warn("ledger_skip_charge", "id", c.ID, "amount", c.Amount, "ts", c.TS, "error", err)
			continue
		}
		entries = append(entries, Entry{
			ID:          c.ID,
			Kind:        KindCharge,
			TS:          c.TS,
			Description: c.Description,
			Amount:      amt,
		})
	}
	for _, p := range payments {
		amt, err := decimal.NewFromString(p.Amount)
		if err != nil || amt.Sign() <= 0 || p.TS == 0 {
			logger.Warn("ledger_skip_payment", "id", p.ID, "amount", p.Amount, "ts", p.TS, "error", err)
			continue
		}
		entries = append(entries, Entry{
			ID:          p.ID,
			Kind:        KindPayment,
			TS:          p.TS,
			Description: p.Description,
			Amount:      amt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TS != entries[j].TS {
			return entries[i].TS < entries[j].TS
		}
		return entries[i].Kind == KindCharge && entries[j].Kind == KindPayment
	})

	running := decimal.Zero
	for i := range entries {
		if entries[i].Kind == KindCharge {
			running = running.Add(entries[i].Amount)
		} else {
			running = running.Sub(entries[i].Amount)
		}
		entries[i].Balance = running.StringFixed(2)
	}
	return entries
}

// Display returns the entries in presentation order, the exact reverse
// of accumulation order. The input slice is not modified.
func Display(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// Balance returns the final running balance of a built ledger, "0.00"
// when the ledger is empty.
func Balance(entries []Entry) string {
	if len(entries) == 0 {
		return decimal.Zero.StringFixed(2)
	}
	return entries[len(entries)-1].Balance
}

// GroupByYear splits display-ordered entries into per-year groups,
// preserving order both across and within groups.
func GroupByYear(entries []Entry) []YearGroup {
	var groups []YearGroup
	for _, e := range entries {
		year := time.Unix(0, e.TS).UTC().Year()
		if len(groups) == 0 || groups[len(groups)-1].Year != year {
			groups = append(groups, YearGroup{Year: year})
		}
		last := len(groups) - 1
		groups[last].Entries = append(groups[last].Entries, e)
	}
	return groups
}
