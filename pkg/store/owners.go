package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// SaveOwner persists an owner record and its email lookup index.
func SaveOwner(o models.Owner) error {
	if o.ID == "" {
		return fmt.Errorf("owner id required")
	}
	if o.CreatedTS == 0 {
		o.CreatedTS = nowNano()
	}
	if err := setJSON("owner:"+o.ID, o); err != nil {
		return err
	}
	if o.Email != "" {
		if err := setRaw("owneremail:"+strings.ToLower(o.Email), []byte(o.ID)); err != nil {
			return err
		}
	}
	logger.Info("owner_saved", "id", o.ID)
	return nil
}

// GetOwner returns the owner with the given ID.
func GetOwner(id string) (models.Owner, error) {
	var o models.Owner
	err := getJSON("owner:"+id, &o)
	return o, err
}

// GetOwnerByEmail resolves the email index then loads the owner.
func GetOwnerByEmail(email string) (models.Owner, error) {
	id, err := GetKey("owneremail:" + strings.ToLower(email))
	if err != nil {
		return models.Owner{}, err
	}
	return GetOwner(id)
}

// ListOwners returns all owner records.
func ListOwners() ([]models.Owner, error) {
	var out []models.Owner
	err := scanPrefix("owner:", func(key string, v []byte) bool {
		var o models.Owner
		if json.Unmarshal(v, &o) == nil {
			out = append(out, o)
		}
		return true
	})
	return out, err
}

// SaveAccount persists an account and the owner->account index.
func SaveAccount(a models.Account) error {
	if a.ID == "" || a.OwnerID == "" {
		return fmt.Errorf("account id and owner id required")
	}
	if a.OpenedTS == 0 {
		a.OpenedTS = nowNano()
	}
	if err := setJSON("account:"+a.ID, a); err != nil {
		return err
	}
	return setRaw("owneracct:"+a.OwnerID, []byte(a.ID))
}

// GetAccount returns the account with the given ID.
func GetAccount(id string) (models.Account, error) {
	var a models.Account
	err := getJSON("account:"+id, &a)
	return a, err
}

// GetAccountByOwner resolves an owner's account.
func GetAccountByOwner(ownerID string) (models.Account, error) {
	id, err := GetKey("owneracct:" + ownerID)
	if err != nil {
		return models.Account{}, err
	}
	return GetAccount(id)
}
