package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hoaportal/pkg/auth"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
	"hoaportal/pkg/utils"
	"hoaportal/pkg/validation"
)

// RegisterSurveys registers survey and voting endpoints.
func RegisterSurveys(r *mux.Router) {
	r.HandleFunc("/surveys", listSurveys).Methods(http.MethodGet)
	r.HandleFunc("/surveys/{id}", getSurvey).Methods(http.MethodGet)
	r.HandleFunc("/surveys/{id}/responses", respondSurvey).Methods(http.MethodPost)
	r.HandleFunc("/surveys/{id}/results", surveyResults).Methods(http.MethodGet)

	boardOnly := auth.RequireRole(models.RoleBoard)
	r.Handle("/surveys", boardOnly(http.HandlerFunc(createSurvey))).Methods(http.MethodPost)
}

func listSurveys(w http.ResponseWriter, r *http.Request) {
	surveys, err := store.ListSurveys()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		Surveys []models.Survey `json:"surveys"`
	}{Surveys: surveys})
}

func getSurvey(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSurvey(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "survey not found")
		return
	}
	utils.JSONWrite(w, http.StatusOK, s)
}

func createSurvey(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title    string   `json:"title"`
		Question string   `json:"question"`
		Options  []string `json:"options"`
		ClosesTS int64    `json:"closes_ts"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s := models.Survey{
		ID:        utils.NewID(),
		Title:     in.Title,
		Question:  in.Question,
		Options:   in.Options,
		CreatedBy: auth.OwnerIDFromContext(r.Context()),
		CreatedTS: time.Now().UTC().UnixNano(),
		ClosesTS:  in.ClosesTS,
	}
	if err := validation.ValidateSurvey(s); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.SaveSurvey(s); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	utils.JSONWrite(w, http.StatusCreated, s)
}

// respondSurvey records the caller's choice. Re-voting before close
// replaces the earlier choice.
func respondSurvey(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Choice int `json:"choice"`
	}
	if err := utils.JSONRead(r, &in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s, err := store.GetSurvey(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "survey not found")
		return
	}
	if s.ClosesTS != 0 && time.Now().UTC().UnixNano() >= s.ClosesTS {
		utils.JSONError(w, http.StatusConflict, "survey is closed")
		return
	}
	if in.Choice < 0 || in.Choice >= len(s.Options) {
		utils.JSONError(w, http.StatusBadRequest, "choice out of range")
		return
	}
	resp := models.SurveyResponse{
		SurveyID: s.ID,
		OwnerID:  auth.OwnerIDFromContext(r.Context()),
		Choice:   in.Choice,
	}
	if err := store.SaveSurveyResponse(resp); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "save failed")
		return
	}
	utils.JSONWrite(w, http.StatusCreated, resp)
}

// surveyResults tallies responses per option.
func surveyResults(w http.ResponseWriter, r *http.Request) {
	s, err := store.GetSurvey(mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		utils.JSONError(w, status, "survey not found")
		return
	}
	responses, err := store.ListSurveyResponses(s.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "list failed")
		return
	}
	counts := make([]int, len(s.Options))
	for _, resp := range responses {
		if resp.Choice >= 0 && resp.Choice < len(counts) {
			counts[resp.Choice]++
		}
	}
	utils.JSONWrite(w, http.StatusOK, struct {
		SurveyID string   `json:"survey_id"`
		Options  []string `json:"options"`
		Counts   []int    `json:"counts"`
		Total    int      `json:"total"`
	}{SurveyID: s.ID, Options: s.Options, Counts: counts, Total: len(responses)})
}
