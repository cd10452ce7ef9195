package store

import (
	"encoding/json"
	"fmt"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/models"
)

// SaveAnnouncement appends an announcement under a time-ordered key.
func SaveAnnouncement(a models.Announcement) error {
	if a.ID == "" {
		return fmt.Errorf("announcement id required")
	}
	if a.TS == 0 {
		a.TS = nowNano()
	}
	key := "announcement:" + tsKey(a.TS)
	if err := setJSON(key, a); err != nil {
		return err
	}
	logger.Info("announcement_saved", "id", a.ID)
	return nil
}

// ListAnnouncements returns announcements oldest first.
func ListAnnouncements() ([]models.Announcement, error) {
	var out []models.Announcement
	err := scanPrefix("announcement:", func(key string, v []byte) bool {
		var a models.Announcement
		if json.Unmarshal(v, &a) == nil {
			out = append(out, a)
		}
		return true
	})
	return out, err
}

// SaveSurvey persists a survey definition.
func SaveSurvey(s models.Survey) error {
	if s.ID == "" {
		return fmt.Errorf("survey id required")
	}
	return setJSON("survey:"+s.ID+":meta", s)
}

// GetSurvey returns a survey by ID.
func GetSurvey(id string) (models.Survey, error) {
	var s models.Survey
	err := getJSON("survey:"+id+":meta", &s)
	return s, err
}

// ListSurveys returns all survey definitions.
func ListSurveys() ([]models.Survey, error) {
	var out []models.Survey
	err := scanPrefix("survey:", func(key string, v []byte) bool {
		if len(key) < 5 || key[len(key)-5:] != ":meta" {
			return true
		}
		var s models.Survey
		if json.Unmarshal(v, &s) == nil {
			out = append(out, s)
		}
		return true
	})
	return out, err
}

// SaveSurveyResponse records an owner's choice; one slot per owner per
// survey, last write wins.
func SaveSurveyResponse(r models.SurveyResponse) error {
	if r.SurveyID == "" || r.OwnerID == "" {
		return fmt.Errorf("survey id and owner id required")
	}
	if r.TS == 0 {
		r.TS = nowNano()
	}
	return setJSON(fmt.Sprintf("survey:%s:resp:%s", r.SurveyID, r.OwnerID), r)
}

// ListSurveyResponses returns all responses for a survey.
func ListSurveyResponses(surveyID string) ([]models.SurveyResponse, error) {
	var out []models.SurveyResponse
	err := scanPrefix("survey:"+surveyID+":resp:", func(key string, v []byte) bool {
		var r models.SurveyResponse
		if json.Unmarshal(v, &r) == nil {
			out = append(out, r)
		}
		return true
	})
	return out, err
}

// SaveDocument persists document metadata and its content bytes.
func SaveDocument(d models.Document, content []byte) error {
	if d.ID == "" {
		return fmt.Errorf("document id required")
	}
	if d.TS == 0 {
		d.TS = nowNano()
	}
	d.Size = int64(len(content))
	if err := setJSON("doc:"+d.ID+":meta", d); err != nil {
		return err
	}
	if err := setRaw("doc:"+d.ID+":content", content); err != nil {
		return err
	}
	logger.Info("document_saved", "id", d.ID, "name", d.Name, "size", d.Size)
	return nil
}

// GetDocument returns document metadata.
func GetDocument(id string) (models.Document, error) {
	var d models.Document
	err := getJSON("doc:"+id+":meta", &d)
	return d, err
}

// GetDocumentContent returns the stored bytes for a document.
func GetDocumentContent(id string) ([]byte, error) {
	s, err := GetKey("doc:" + id + ":content")
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// ListDocuments returns all document metadata records.
func ListDocuments() ([]models.Document, error) {
	var out []models.Document
	err := scanPrefix("doc:", func(key string, v []byte) bool {
		if len(key) < 5 || key[len(key)-5:] != ":meta" {
			return true
		}
		var d models.Document
		if json.Unmarshal(v, &d) == nil {
			out = append(out, d)
		}
		return true
	})
	return out, err
}
