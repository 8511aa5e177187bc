// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"time"
)

// Capabilities granted to users. They are stored on the user row so every
// authorization decision can be made from the loaded entity alone.
const (
	CapabilityInspirer = "inspirer"
	CapabilityAdmin    = "admin"
)

// SlugLength is the fixed length of the public user identifier.
const SlugLength = 20

// Characteristic score bounds.
const (
	MinScore = 1
	MaxScore = 6
)

// User represents an account in the Putevoditel application.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Username        string    `gorm:"size:255;not null" json:"username"`
	FirstName       string    `gorm:"size:255;not null" json:"first_name"`
	LastName        string    `gorm:"size:255;not null" json:"last_name"`
	Slug            string    `gorm:"uniqueIndex;size:20;not null" json:"slug"`
	Password        string    `gorm:"not null" json:"-"`
	SubscriberCount int       `gorm:"not null;default:0" json:"subscriber_count"`
	Capabilities    []string  `gorm:"type:text;serializer:json" json:"capabilities"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Profile
}

// Profile is the personality form ("Putevoditel") filled in by a user.
type Profile struct {
	Telephone string `gorm:"size:32" json:"telephone"`

	// characteristics, each nil or within [MinScore, MaxScore]
	Communication    *int `json:"communication"`
	IdeaGeneration   *int `json:"idea_generation"`
	Organisation     *int `json:"organisation"`
	Creativity       *int `json:"creativity"`
	ResourceSearch   *int `json:"resource_search"`
	Achievement      *int `json:"achievement"`
	CriticalThinking *int `json:"critical_thinking"`
	Leadership       *int `json:"leadership"`

	// why section
	WantToFindOut string `gorm:"type:text" json:"want_to_find_out"`
	WantToLearn   string `gorm:"type:text" json:"want_to_learn"`
	WantToGet     string `gorm:"type:text" json:"want_to_get"`

	// who am I
	Introvert     bool   `gorm:"not null;default:false" json:"introvert"`
	Individualist bool   `gorm:"not null;default:false" json:"individualist"`
	Optimist      bool   `gorm:"not null;default:false" json:"optimist"`
	Serious       bool   `gorm:"not null;default:false" json:"serious"`
	Organized     bool   `gorm:"not null;default:false" json:"organized"`
	Leader        bool   `gorm:"not null;default:false" json:"leader"`
	WhoAmIExtra1  string `gorm:"size:50" json:"who_am_i_extra_1"`
	WhoAmIExtra2  string `gorm:"size:50" json:"who_am_i_extra_2"`
	WhoAmIExtra3  string `gorm:"size:50" json:"who_am_i_extra_3"`
	WhoAmIExtra4  string `gorm:"size:50" json:"who_am_i_extra_4"`
	WhoAmIExtra5  string `gorm:"size:50" json:"who_am_i_extra_5"`

	// what I want
	WhatIWant1  string `gorm:"size:100" json:"what_i_want_1"`
	WhatIWant2  string `gorm:"size:100" json:"what_i_want_2"`
	WhatIWant3  string `gorm:"size:100" json:"what_i_want_3"`
	WhatIWant4  string `gorm:"size:100" json:"what_i_want_4"`
	WhatIWant5  string `gorm:"size:100" json:"what_i_want_5"`
	WhatIWant6  string `gorm:"size:100" json:"what_i_want_6"`
	WhatIWant7  string `gorm:"size:100" json:"what_i_want_7"`
	WhatIWant8  string `gorm:"size:100" json:"what_i_want_8"`
	WhatIWant9  string `gorm:"size:100" json:"what_i_want_9"`
	WhatIWant10 string `gorm:"size:100" json:"what_i_want_10"`
}

// HasCapability reports whether the user holds the named capability.
func (u *User) HasCapability(name string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Capabilities, name)
}

// IsInspirer reports whether the user may be subscribed to and publish posts.
func (u *User) IsInspirer() bool {
	return u.HasCapability(CapabilityInspirer)
}

// Grant adds a capability. It returns false when the user already had it.
func (u *User) Grant(name string) bool {
	if u.HasCapability(name) {
		return false
	}
	u.Capabilities = append(u.Capabilities, name)
	return true
}

// Revoke removes a capability. It returns false when the user did not have it.
func (u *User) Revoke(name string) bool {
	idx := slices.Index(u.Capabilities, name)
	if idx < 0 {
		return false
	}
	u.Capabilities = slices.Delete(u.Capabilities, idx, idx+1)
	return true
}

// PublicUser is the subset of a user exposed to other users.
type PublicUser struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Public returns the public projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// AccountView is returned by registration.
type AccountView struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Slug      string `json:"slug"`
}

// Account returns the registration view of the user.
func (u User) Account() AccountView {
	return AccountView{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Slug: u.Slug}
}

// ProfileView is the Putevoditel form as returned to its owner.
type ProfileView struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Profile
	Images []string `json:"images"`
}

// Form returns the profile form of the user with the given image URLs.
func (u User) Form(images []string) ProfileView {
	if images == nil {
		images = []string{}
	}
	return ProfileView{FirstName: u.FirstName, LastName: u.LastName, Profile: u.Profile, Images: images}
}
