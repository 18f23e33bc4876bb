package models

import "github.com/google/uuid"

// Location is the place an incident was reported at.
type Location struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Address   string    `gorm:"size:255" json:"address"`
	Area      string    `gorm:"size:100" json:"area"`
	City      string    `gorm:"size:100;index" json:"city"`
	Province  string    `gorm:"size:100" json:"province"`
}
