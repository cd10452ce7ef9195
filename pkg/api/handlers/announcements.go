package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// RegisterAnnouncements registers community announcement endpoints.
func RegisterAnnouncements(r *mux.Router) {
	r.HandleFunc("/announcements", listAnnouncements).Methods(http.MethodGet)
	boardOnly := auth.RequireRole(models.RoleBoard)
	r.Handle("/announcements", boardOnly(http.HandlerFunc(postAnnouncement))).Methods(http.MethodPost)
}

// listAnnouncements returns announcements newest first.
func listAnnouncements(w http.ResponseWriter, r *http.Request) {
	anns, err := store.ListAnnouncements()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	for i, j := 0, len(anns)-1; i < j; i, j = i+1, j-1 {
		anns[i], anns[j] = anns[j], anns[i]
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Announcements []models.Announcement `json:"announcements"`
	}{Announcements: anns})
}

func postAnnouncement(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	a := models.Announcement{
		ID:       utils.NewID(),
		AuthorID: auth.OwnerIDFromContext(r.Context()),
		Title:    in.Title,
		Body:     in.Body,
	}
	if err := validation.ValidateAnnouncement(a); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.SaveAnnouncement(a); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	utils.JSONWrite(w, http.StatusCreated, a)
}
