// Package models holds the persisted document types shared by the services.
package models

import (
	"time"

	"github.com/flavien-hugs/yimba-api/internal/storage"
)

// Post is a scraped social-network record: the raw actor payload in Data and
// the optional sentiment breakdown in Analyse.
type Post struct {
	storage.Meta `bson:",inline"`

	Data    map[string]any     `bson:"data" json:"data"`
	Analyse map[string]float64 `bson:"analyse,omitempty" json:"analyse,omitempty"`
}

// User is an account of the auth service.
type User struct {
	storage.Meta `bson:",inline"`

	Role     string `bson:"role" json:"role"`
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"`
	Fullname string `bson:"fullname,omitempty" json:"fullname,omitempty"`
	IsActive bool   `bson:"is_active" json:"is_active"`
}

// UserOut is the user payload exposed over HTTP.
type UserOut struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Out converts a stored user to its HTTP representation.
func (u *User) Out() UserOut {
	return UserOut{
		ID:        u.ID,
		Role:      u.Role,
		Email:     u.Email,
		Fullname:  u.Fullname,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Project is a tracked hashtag/keyword owned by a user.
type Project struct {
	storage.Meta `bson:",inline"`

	Name   string `bson:"name" json:"name"`
	Slug   string `bson:"slug" json:"slug"`
	UserID string `bson:"user_id" json:"user_id"`
}

// Role is a permission grouping managed by the params service.
type Role struct {
	storage.Meta `bson:",inline"`

	Name string `bson:"name" json:"name"`
	Slug string `bson:"slug" json:"slug"`
}

// Analyse is a per-post sentiment record. Field names keep the French wire
// format of the existing consumers.
type Analyse struct {
	storage.Meta `bson:",inline"`

	PostID   string  `bson:"post_id" json:"post_id"`
	Neutre   float64 `bson:"neutre" json:"neutre"`
	Negatif  float64 `bson:"negatif" json:"negatif"`
	Positif  float64 `bson:"positif" json:"positif"`
	Compound float64 `bson:"compound" json:"compound"`
}
