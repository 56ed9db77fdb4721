package models

import "time"

// InitialFootprint is the one-time onboarding snapshot persisted when a user
// completes the questionnaire. Its existence drives post-login routing; the
// ledger itself never reads it.
type InitialFootprint struct {
	ID                 int       `json:"id" db:"id"`
	AccountID          string    `json:"account_id" db:"account_id"`
	FoodFootprint      float64   `json:"food_footprint" db:"food_footprint"`
	TransportFootprint float64   `json:"transport_footprint" db:"transport_footprint"`
	EnergyFootprint    float64   `json:"energy_footprint" db:"energy_footprint"`
	TotalFootprint     float64   `json:"total_footprint" db:"total_footprint"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
