package models

type Announcement struct {
	ID       string `json:"id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	TS       int64  `json:"ts"`
}

type Survey struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	CreatedBy string   `json:"created_by"`
	CreatedTS int64    `json:"created_ts"`
	// ClosesTS of zero means the survey stays open
	ClosesTS int64 `json:"closes_ts,omitempty"`
}

// SurveyResponse holds one owner's choice; one per owner per survey,
// last write wins.
type SurveyResponse struct {
	SurveyID string `json:"survey_id"`
	OwnerID  string `json:"owner_id"`
	Choice   int    `json:"choice"`
	TS       int64  `json:"ts"`
}

// Document is the metadata record; bytes live under a separate store key.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	UploadedBy  string `json:"uploaded_by"`
	TS          int64  `json:"ts"`
}
