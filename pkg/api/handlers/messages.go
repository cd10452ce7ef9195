package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/telemetry"
	"hoaportal/pkg/threads"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// RegisterMessages registers direct-message endpoints.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/messages", listMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", getMessage).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}/thread", getThread).Methods(http.MethodGet)
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ReceiverID string `json:"receiver_id"`
		Subject    string `json:"subject"`
		Body       string `json:"body"`
		ParentID   string `json:"parent_id"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m := models.Message{
		ID:         utils.NewID(),
		SenderID:   auth.OwnerIDFromContext(r.Context()),
		ReceiverID: in.ReceiverID,
		Subject:    in.Subject,
		Body:       in.Body,
		ParentID:   in.ParentID,
	}
	if err := validation.ValidateMessage(m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := store.GetOwner(m.ReceiverID); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unknown receiver")
		return
	}
	rootID := m.ID
	if m.ParentID != "" {
		parent, err := store.GetMessage(m.ParentID)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "unknown parent message")
			return
		}
		if !participant(parent, m.SenderID) {
			utils.JSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		rootID, err = store.ThreadRoot(parent.ID)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, "thread resolve failed")
			return
		}
	}
	if err := store.SaveMessage(m, rootID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	telemetry.MessagesSentTotal.Inc()
	utils.JSONWrite(w, http.StatusCreated, m)
}

// listMessages returns the caller's inbox, or outbox with ?box=outbox.
func listMessages(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	var (
		msgs []models.Message
		err  error
	)
	switch r.URL.Query().Get("box") {
	case "", "inbox":
		msgs, err = store.ListInbox(ownerID)
	case "outbox":
		msgs, err = store.ListOutbox(ownerID)
	default:
		utils.JSONError(w, http.StatusBadRequest, "box must be inbox or outbox")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Messages []models.Message `json:"messages"`
	}{Messages: msgs})
}

func getMessage(w http.ResponseWriter, r *http.Request) {
	m, err := store.GetMessage(mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		utils.JSONError(w, status, "message not found")
		return
	}
	if !canRead(r, m) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	utils.JSONWrite(w, http.StatusOK, m)
}

// getThread reconstructs the reply forest containing a message. Any
// message id within the thread resolves to the same forest.
func getThread(w http.ResponseWriter, r *http.Request) {
	m, err := store.GetMessage(mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		utils.JSONError(w, status, "message not found")
		return
	}
	if !canRead(r, m) {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	rootID, err := store.ThreadRoot(m.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "thread resolve failed")
		return
	}
	flat, err := store.ListThread(rootID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "thread list failed")
		return
	}
	forest := threads.Build(flat)
	utils.JSONWrite(w, http.StatusOK, struct {
		Root    string          `json:"root"`
		Count   int             `json:"count"`
		Threads []*threads.Node `json:"threads"`
	}{Root: rootID, Count: threads.Size(forest), Threads: forest})
}

func participant(m models.Message, ownerID string) bool {
	return m.SenderID == ownerID || m.ReceiverID == ownerID
}

func canRead(r *http.Request, m models.Message) bool {
	sess, _ := auth.SessionFromContext(r.Context())
	if sess.Role == models.RoleAdmin || sess.Role == models.RoleBoard {
		return true
	}
	return participant(m, sess.OwnerID)
}
