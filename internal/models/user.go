package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:user"`
	ID            string    `bun:"id,pk" json:"id"`
	DisplayName   string    `bun:"display_name" json:"display_name"`
	PhotoURL      string    `bun:"photo_url" json:"photo_url"`
	LanguageCode  string    `bun:"language_code" json:"language_code"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`

	IsNewUser bool `bun:"-" json:"is_new_user"`
}

// UserFromAuth only use in middleware
type UserFromAuth struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	PhotoURL     string `json:"photo_url"`
	LanguageCode string `json:"language_code"`
}
