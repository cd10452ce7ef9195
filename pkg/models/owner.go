package models

// Role names accepted on an owner record.
const (
	RoleOwner = "owner"
	RoleBoard = "board"
	RoleAdmin = "admin"
)

type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	// Unit is the property/lot identifier within the association
	Unit  string `json:"unit,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
	// PasswordHash is a bcrypt hash; never serialized to API responses
	PasswordHash string `json:"password_hash,omitempty"`
	CreatedTS    int64  `json:"created_ts,omitempty"`
}

// Public returns a copy safe for API responses.
func (o Owner) Public() Owner {
	o.PasswordHash = ""
	return o
}

// Session is the server-side record behind an opaque bearer token. A session
// authenticates requests until ExpiresTS; after that it may still be
// exchanged for a fresh token at /v1/refresh-token until RefreshableTS.
type Session struct {
	Token         string `json:"token"`
	OwnerID       string `json:"owner_id"`
	Role          string `json:"role"`
	IssuedTS      int64  `json:"issued_ts"`
	ExpiresTS     int64  `json:"expires_ts"`
	RefreshableTS int64  `json:"refreshable_ts"`
}
