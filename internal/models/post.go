package models

import "time"

// Post is a video publication by an inspirer. Listings are newest first.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	CreatorID   uint      `gorm:"not null;index" json:"-"`
	Creator     *User     `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Video       string    `gorm:"size:512;not null" json:"video"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// PostView is the API representation of a post.
type PostView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Creator     PublicUser `json:"creator"`
	Video       string     `json:"video"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// View returns the API representation. The creator must be preloaded.
func (p Post) View() PostView {
	view := PostView{
		ID:          p.ID,
		Name:        p.Name,
		Video:       p.Video,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
	if p.Creator != nil {
		view.Creator = p.Creator.Public()
	}
	return view
}
