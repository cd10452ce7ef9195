package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
)

var documentMaxUpload int64

// RegisterDocuments registers shared-document endpoints. maxUpload
// bounds accepted upload bodies in bytes.
func RegisterDocuments(r *mux.Router, maxUpload int64) {
	documentMaxUpload = maxUpload
	r.HandleFunc("/documents", listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", downloadDocument).Methods(http.MethodGet)

	boardOnly := auth.RequireRole(models.RoleBoard)
	r.Handle("/documents", boardOnly(http.HandlerFunc(uploadDocument))).Methods(http.MethodPost)
}

func listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := store.ListDocuments()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Documents []models.Document `json:"documents"`
	}{Documents: docs})
}

// uploadDocument stores the raw request body under the name given in
// the query string. Content type is taken from the request header.
func uploadDocument(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		utils.JSONError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	limit := documentMaxUpload
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		utils.JSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	if len(body) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "empty upload")
		return
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	d := models.Document{
		ID:          utils.NewID(),
		Name:        name,
		ContentType: ct,
		UploadedBy:  auth.OwnerIDFromContext(r.Context()),
	}
	if err := store.SaveDocument(d, body); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	d.Size = int64(len(body))
	utils.JSONWrite(w, http.StatusCreated, d)
}

func downloadDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := store.GetDocument(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		utils.JSONError(w, status, "document not found")
		return
	}
	content, err := store.GetDocumentContent(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "content load failed")
		return
	}
	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
