package store

import (
	"encoding/json"
	"fmt"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// AppendCharge writes a charge under its account's charge namespace.
// Key format: account:<accountID>:charge:<unix_nano_padded>-<seq>
func AppendCharge(c models.Charge) error {
	if c.AccountID == "" {
		return fmt.Errorf("charge account id required")
	}
	if c.TS == 0 {
		c.TS = nowNano()
	}
	key := fmt.Sprintf("account:%s:charge:%s", c.AccountID, tsKey(c.TS))
	if err := setJSON(key, c); err != nil {
		return err
	}
	logger.Info("charge_saved", "account", c.AccountID, "id", c.ID)
	return nil
}

// AppendPayment writes a payment under its account's payment namespace.
func AppendPayment(p models.Payment) error {
	if p.AccountID == "" {
		return fmt.Errorf("payment account id required")
	}
	if p.TS == 0 {
		p.TS = nowNano()
	}
	key := fmt.Sprintf("account:%s:payment:%s", p.AccountID, tsKey(p.TS))
	if err := setJSON(key, p); err != nil {
		return err
	}
	logger.Info("payment_saved", "account", p.AccountID, "id", p.ID)
	return nil
}

// ListCharges returns all charges for an account in insertion order.
func ListCharges(accountID string) ([]models.Charge, error) {
	var out []models.Charge
	err := scanPrefix("account:"+accountID+":charge:", func(key string, v []byte) bool {
		var c models.Charge
		if err := json.Unmarshal(v, &c); err != nil {
			logger.Warn("charge_record_invalid", "key", key, "error", err)
			return true
		}
		out = append(out, c)
		return true
	})
	return out, err
}

// ListPayments returns all payments for an account in insertion order.
func ListPayments(accountID string) ([]models.Payment, error) {
	var out []models.Payment
	err := scanPrefix("account:"+accountID+":payment:", func(key string, v []byte) bool {
		var p models.Payment
		if err := json.Unmarshal(v, &p); err != nil {
			logger.Warn("payment_record_invalid", "key", key, "error", err)
			return true
		}
		out = append(out, p)
		return true
	})
	return out, err
}

// SaveCard persists a masked card record under its owner's namespace.
func SaveCard(c models.CreditCard) error {
	if c.ID == "" || c.OwnerID == "" {
		return fmt.Errorf("card id and owner id required")
	}
	if c.AddedTS == 0 {
		c.AddedTS = nowNano()
	}
	return setJSON(fmt.Sprintf("card:%s:%s", c.OwnerID, c.ID), c)
}

// GetCard loads one card for an owner.
func GetCard(ownerID, cardID string) (models.CreditCard, error) {
	var c models.CreditCard
	err := getJSON(fmt.Sprintf("card:%s:%s", ownerID, cardID), &c)
	return c, err
}

// ListCards returns an owner's stored cards.
func ListCards(ownerID string) ([]models.CreditCard, error) {
	var out []models.CreditCard
	err := scanPrefix("card:"+ownerID+":", func(key string, v []byte) bool {
		var c models.CreditCard
		if json.Unmarshal(v, &c) == nil {
			out = append(out, c)
		}
		return true
	})
	return out, err
}

// DeleteCard removes a stored card. Payments keep their denormalized
// card_info string.
func DeleteCard(ownerID, cardID string) error {
	return deleteKey(fmt.Sprintf("card:%s:%s", ownerID, cardID))
}
