package store

import (
	"encoding/json"
	"fmt"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// SaveSession persists a session under its opaque token.
func SaveSession(s models.Session) error {
	if s.Token == "" || s.OwnerID == "" {
		return fmt.Errorf("session token and owner id required")
	}
	return setJSON("session:"+s.Token, s)
}

// GetSession returns the session behind a token, or ErrNotFound.
func GetSession(token string) (models.Session, error) {
	var s models.Session
	err := getJSON("session:"+token, &s)
	return s, err
}

// DeleteSession revokes a token. Deleting an absent token is not an error.
func DeleteSession(token string) error {
	err := deleteKey("session:" + token)
	if err == nil {
		logger.Info("session_deleted", "token_suffix", tokenSuffix(token))
	}
	return err
}

// PurgeSessions removes sessions whose refresh window has passed entirely.
// With dryRun set it only counts. Returns the number of sessions affected.
func PurgeSessions(now int64, dryRun bool) (int, error) {
	var stale []string
	err := scanPrefix("session:", func(key string, v []byte) bool {
		var s models.Session
		if err := json.Unmarshal(v, &s); err != nil {
			// unreadable session records are purged too
			stale = append(stale, key)
			return true
		}
		if s.RefreshableTS != 0 && s.RefreshableTS < now {
			stale = append(stale, key)
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	if dryRun {
		return len(stale), nil
	}
	for _, k := range stale {
		if err := deleteKey(k); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// tokenSuffix returns the last 4 characters of a token for safe logging.
func tokenSuffix(token string) string {
	if len(token) <= 4 {
		return token
	}
	return token[len(token)-4:]
}
