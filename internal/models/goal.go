package models

import "time"

// Dream is an aspirational goal without a deadline. It can be converted into
// an Aim exactly once, after which it no longer exists.
type Dream struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Aim is a goal with a committed deadline.
type Aim struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	Deadline    time.Time `gorm:"not null" json:"deadline"`
}

// ToAim builds the Aim a dream turns into, keeping its name, description and
// creation time.
func (d *Dream) ToAim(deadline time.Time) *Aim {
	return &Aim{
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		Deadline:    deadline,
	}
}
