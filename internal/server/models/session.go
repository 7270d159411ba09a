package models

import "time"

// Session is the authentication framework's server-side session record.
type Session struct {
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// SessionPatch changes expiry and/or owner of the session identified by
// SessionToken. Unset fields keep their stored value.
type SessionPatch struct {
	SessionToken string
	UserID       Optional[string]
	Expires      Optional[time.Time]
}
