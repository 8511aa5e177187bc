package models

import "time"

// DreamAssociation is an image a user attaches to their profile.
type DreamAssociation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Image     string    `gorm:"size:512;not null" json:"image"`
	CreatedAt time.Time `json:"created_at"`
}
