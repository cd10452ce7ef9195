package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// RegisterOwners registers owner profile and directory endpoints.
func RegisterOwners(r *mux.Router) {
	r.HandleFunc("/owners/me", getSelf).Methods(http.MethodGet)
	r.HandleFunc("/owners/me", updateSelf).Methods(http.MethodPut)

	boardOnly := auth.RequireRole(models.RoleBoard)
	r.Handle("/owners", boardOnly(http.HandlerFunc(listOwners))).Methods(http.MethodGet)
	r.Handle("/owners", auth.RequireRole()(http.HandlerFunc(createOwner))).Methods(http.MethodPost)
	r.Handle("/owners/{id}", boardOnly(http.HandlerFunc(getOwner))).Methods(http.MethodGet)
}

func getSelf(w http.ResponseWriter, r *http.Request) {
	o, err := store.GetOwner(auth.OwnerIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "owner not found")
		return
	}
	utils.JSONWrite(w, http.StatusOK, o.Public())
}

// updateSelf lets an owner change their own contact fields. Email, unit
// and role only move through admin-created records.
func updateSelf(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := store.GetOwner(auth.OwnerIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "owner not found")
		return
	}
	if strings.TrimSpace(in.Name) != "" {
		o.Name = in.Name
	}
	o.Phone = in.Phone
	if err := validation.ValidateOwner(o); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.SaveOwner(o); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, o.Public())
}

func listOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := store.ListOwners()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	out := make([]models.Owner, 0, len(owners))
	for _, o := range owners {
		out = append(out, o.Public())
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Owners []models.Owner `json:"owners"`
	}{Owners: out})
}

func getOwner(w http.ResponseWriter, r *http.Request) {
	o, err := store.GetOwner(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "owner not found")
		return
	}
	utils.JSONWrite(w, http.StatusOK, o.Public())
}

// createOwner provisions a new owner with credentials and an account.
// Admin only; the empty RequireRole set means no plain role passes.
func createOwner(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Unit     string `json:"unit"`
		Phone    string `json:"phone"`
		Role     string `json:"role"`
		Password string `json:"password"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Role == "" {
		in.Role = models.RoleOwner
	}
	if len(in.Password) < 8 {
		utils.JSONError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	o := models.Owner{
		ID:    utils.NewID(),
		Email: in.Email,
		Name:  in.Name,
		Unit:  in.Unit,
		Phone: in.Phone,
		Role:  in.Role,
	}
	if err := validation.ValidateOwner(o); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := store.GetOwnerByEmail(in.Email); err == nil {
		utils.JSONError(w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "hash failed")
		return
	}
	o.PasswordHash = string(hash)
	if err := store.SaveOwner(o); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	acct := models.Account{ID: utils.NewID(), OwnerID: o.ID, Unit: o.Unit}
	if err := store.SaveAccount(acct); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "account create failed")
		return
	}
	logger.Info("owner_created", "id", o.ID, "role", o.Role)
	utils.JSONWrite(w, http.StatusCreated, o.Public())
}
