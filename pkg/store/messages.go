package store

import (
	"fmt"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// SaveMessage persists a message and indexes it for the receiver's inbox,
// the sender's outbox and its thread. rootID is the id of the thread root
// (the message's own id when it has no parent).
func SaveMessage(m models.Message, rootID string) error {
	if m.ID == "" {
		return fmt.Errorf("message id required")
	}
	if rootID == "" {
		rootID = m.ID
	}
	if m.TS == 0 {
		m.TS = nowNano()
	}
	if err := setJSON("msg:"+m.ID, m); err != nil {
		return err
	}
	suffix := tsKey(m.TS)
	if m.ReceiverID != "" {
		if err := setRaw(fmt.Sprintf("inbox:%s:%s", m.ReceiverID, suffix), []byte(m.ID)); err != nil {
			return err
		}
	}
	if m.SenderID != "" {
		if err := setRaw(fmt.Sprintf("outbox:%s:%s", m.SenderID, suffix), []byte(m.ID)); err != nil {
			return err
		}
	}
	if err := setRaw(fmt.Sprintf("msgthread:%s:%s", rootID, suffix), []byte(m.ID)); err != nil {
		return err
	}
	logger.Info("message_saved", "id", m.ID, "root", rootID)
	return nil
}

// GetMessage returns a single message by ID.
func GetMessage(id string) (models.Message, error) {
	var m models.Message
	err := getJSON("msg:"+id, &m)
	return m, err
}

// ThreadRoot walks parent references from the given message up to the
// thread root. A broken parent link stops the walk at the last reachable
// message.
func ThreadRoot(id string) (string, error) {
	cur, err := GetMessage(id)
	if err != nil {
		return "", err
	}
	for cur.ParentID != "" {
		parent, err := GetMessage(cur.ParentID)
		if err != nil {
			logger.Warn("thread_parent_missing", "id", cur.ID, "parent", cur.ParentID)
			break
		}
		cur = parent
	}
	return cur.ID, nil
}

// ListThread returns all messages in a thread in send order.
func ListThread(rootID string) ([]models.Message, error) {
	return listByIndex("msgthread:" + rootID + ":")
}

// ListInbox returns messages addressed to an owner in receive order.
func ListInbox(ownerID string) ([]models.Message, error) {
	return listByIndex("inbox:" + ownerID + ":")
}

// ListOutbox returns messages an owner sent.
func ListOutbox(ownerID string) ([]models.Message, error) {
	return listByIndex("outbox:" + ownerID + ":")
}

func listByIndex(prefix string) ([]models.Message, error) {
	var ids []string
	err := scanPrefix(prefix, func(key string, v []byte) bool {
		ids = append(ids, string(v))
		return true
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		m, err := GetMessage(id)
		if err != nil {
			logger.Warn("indexed_message_missing", "id", id)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
