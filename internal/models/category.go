package models

// Category is a user-scoped label. Every debt references exactly one
// category owned by the same user.
type Category struct {
	ID          string
	UserID      string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
}
