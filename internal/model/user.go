package model

import "time"

// User is the local record of an identity resolved by the upstream service.
// RegNumber is the external registration number and is unique.
type User struct {
	ID         string    `json:"id"`
	RegNumber  string    `json:"regNumber"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile,omitempty"`
	Program    string    `json:"program,omitempty"`
	Semester   int       `json:"semester,omitempty"`
	Batch      string    `json:"batch,omitempty"`
	Year       int       `json:"year,omitempty"`
	Department string    `json:"department,omitempty"`
	Section    string    `json:"section,omitempty"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
	LastLogin  time.Time `json:"lastLogin"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
