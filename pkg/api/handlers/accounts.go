package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/ledger"
	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/telemetry"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// RegisterAccounts registers account, ledger, payment and card endpoints.
func RegisterAccounts(r *mux.Router) {
	r.HandleFunc("/accounts/me", getOwnAccount).Methods(http.MethodGet)
	r.HandleFunc("/accounts/me/ledger", getOwnLedger).Methods(http.MethodGet)
	r.HandleFunc("/accounts/me/payments", makePayment).Methods(http.MethodPost)

	r.HandleFunc("/cards", listOwnCards).Methods(http.MethodGet)
	r.HandleFunc("/cards", addCard).Methods(http.MethodPost)
	r.HandleFunc("/cards/{id}", removeCard).Methods(http.MethodDelete)

	boardOnly := auth.RequireRole(models.RoleBoard)
	r.Handle("/accounts/{id}/charges", boardOnly(http.HandlerFunc(postCharge))).Methods(http.MethodPost)
	r.Handle("/accounts/{id}/ledger", boardOnly(http.HandlerFunc(getAccountLedger))).Methods(http.MethodGet)
}

type ledgerResponse struct {
	AccountID string             `json:"account_id"`
	Balance   string             `json:"balance"`
	Entries   []ledger.Entry     `json:"entries"`
	Years     []ledger.YearGroup `json:"years"`
}

func buildLedgerResponse(accountID string) (ledgerResponse, error) {
	charges, err := store.ListCharges(accountID)
	if err != nil {
		return ledgerResponse{}, err
	}
	payments, err := store.ListPayments(accountID)
	if err != nil {
		return ledgerResponse{}, err
	}
	built := ledger.Build(charges, payments)
	disp := ledger.Display(built)
	return ledgerResponse{
		AccountID: accountID,
		Balance:   ledger.Balance(built),
		Entries:   disp,
		Years:     ledger.GroupByYear(disp),
	}, nil
}

func getOwnAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := store.GetAccountByOwner(auth.OwnerIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "account not found")
		return
	}
	charges, err := store.ListCharges(acct.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "ledger build failed")
		return
	}
	payments, err := store.ListPayments(acct.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "ledger build failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		models.Account
		Balance string `json:"balance"`
	}{Account: acct, Balance: ledger.Balance(ledger.Build(charges, payments))})
}

func getOwnLedger(w http.ResponseWriter, r *http.Request) {
	acct, err := store.GetAccountByOwner(auth.OwnerIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "account not found")
		return
	}
	resp, err := buildLedgerResponse(acct.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "ledger build failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, resp)
}

func getAccountLedger(w http.ResponseWriter, r *http.Request) {
	acct, err := store.GetAccount(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "account not found")
		return
	}
	resp, err := buildLedgerResponse(acct.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "ledger build failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, resp)
}

// makePayment records a payment from the caller's account using one of
// their stored cards. The card's masked form is denormalized onto the
// payment so history survives card deletion.
func makePayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount      string `json:"amount"`
		CardID      string `json:"card_id"`
		Description string `json:"description"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateAmount(in.Amount); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	ownerID := auth.OwnerIDFromContext(r.Context())
	acct, err := store.GetAccountByOwner(ownerID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "account not found")
		return
	}
	card, err := store.GetCard(ownerID, in.CardID)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unknown card")
		return
	}
	p := models.Payment{
		ID:          utils.NewID(),
		AccountID:   acct.ID,
		Amount:      in.Amount,
		Description: in.Description,
		CardID:      card.ID,
		CardInfo:    card.Masked(),
	}
	if err := store.AppendPayment(p); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "payment save failed")
		return
	}
	telemetry.PaymentsRecordedTotal.Inc()
	logger.Info("payment_recorded", "account", acct.ID, "payment", p.ID)
	utils.JSONWrite(w, http.StatusCreated, p)
}

// postCharge lets the board assess a charge against any account.
func postCharge(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
		TS          int64  `json:"ts"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validation.ValidateAmount(in.Amount); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	acct, err := store.GetAccount(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "account not found")
		return
	}
	c := models.Charge{
		ID:          utils.NewID(),
		AccountID:   acct.ID,
		Amount:      in.Amount,
		Description: in.Description,
		TS:          in.TS,
	}
	if err := store.AppendCharge(c); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "charge save failed")
		return
	}
	logger.Info("charge_posted", "account", acct.ID, "charge", c.ID, "by", auth.OwnerIDFromContext(r.Context()))
	utils.JSONWrite(w, http.StatusCreated, c)
}

func listOwnCards(w http.ResponseWriter, r *http.Request) {
	cards, err := store.ListCards(auth.OwnerIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Cards []models.CreditCard `json:"cards"`
	}{Cards: cards})
}

func addCard(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int    `json:"exp_month"`
		ExpYear  int    `json:"exp_year"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c := models.CreditCard{
		ID:       utils.NewID(),
		OwnerID:  auth.OwnerIDFromContext(r.Context()),
		Brand:    in.Brand,
		Last4:    in.Last4,
		ExpMonth: in.ExpMonth,
		ExpYear:  in.ExpYear,
	}
	if err := validation.ValidateCard(c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.SaveCard(c); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	utils.JSONWrite(w, http.StatusCreated, c)
}

func removeCard(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	cardID := mux.Vars(r)["id"]
	if _, err := store.GetCard(ownerID, cardID); err != nil {
		utils.JSONError(w, http.StatusNotFound, "card not found")
		return
	}
	if err := store.DeleteCard(ownerID, cardID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
