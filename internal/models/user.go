package models

import "time"

type User struct {
	ID         int       `json:"id" example:"1"`                    // User ID
	Username   string    `json:"username" example:"greta_t"`        // Display name
	Email      string    `json:"email" example:"user@example.com"`  // User email
	AccountID  string    `json:"account_id" example:"1234567890"`   // Ledger partition key
	SchoolYear string    `json:"school_year" example:"Sophomore"`   // Cohort used for ranking
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
