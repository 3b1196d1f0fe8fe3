package models

import "time"

// Session is an authenticated identity with its resolved role. The JSON form
// is the persisted record; ID and RawToken never leave the process.
type Session struct {
	ID        string    `json:"-"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	IsAdmin   bool      `json:"isAdmin"`
	LoginTime time.Time `json:"loginTime"`
	RawToken  string    `json:"-"`
}

// DirectoryEntry is one row of the staff directory.
type DirectoryEntry struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Approved bool   `json:"approved"`
}
