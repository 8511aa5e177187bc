package models

import "time"

// Subscriber records that User subscribes to Author. The (author, user) pair
// is unique and every row is reflected in Author.SubscriberCount.
type Subscriber struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_subscriber_author_user,priority:1" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscriber_author_user,priority:2;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscriberView is the public shape of one subscription.
type SubscriberView struct {
	User PublicUser `json:"user"`
}

// AuthorView is returned by the subscription endpoints.
type AuthorView struct {
	Username        string           `json:"username"`
	Email           string           `json:"email"`
	SubscriberCount int              `json:"subscriber_count"`
	Subscribers     []SubscriberView `json:"subscribers"`
}

// NewAuthorView assembles the author representation with the given page of subscribers.
func NewAuthorView(author *User, subs []Subscriber) AuthorView {
	view := AuthorView{
		Username:        author.Username,
		Email:           author.Email,
		SubscriberCount: author.SubscriberCount,
		Subscribers:     make([]SubscriberView, 0, len(subs)),
	}
	for _, s := range subs {
		if s.User == nil {
			continue
		}
		view.Subscribers = append(view.Subscribers, SubscriberView{User: s.User.Public()})
	}
	return view
}

// AuthorPage is an AuthorView carrying one page of subscribers and the
// page navigation.
type AuthorPage struct {
	AuthorView
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
}

// NewAuthorPage builds the paginated author representation.
func NewAuthorPage(author *User, page Page[Subscriber]) AuthorPage {
	return AuthorPage{
		AuthorView: NewAuthorView(author, page.Results),
		Count:      page.Count,
		Next:       page.Next,
		Previous:   page.Previous,
	}
}
