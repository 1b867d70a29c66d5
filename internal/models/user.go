package models

// UserProfile is the public slice of a user from the user directory.
type UserProfile struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Nickname  string `db:"nickname" json:"nickname"`
	Avatar    string `db:"avatar" json:"avatar"`
	Tick      bool   `db:"tick" json:"tick"`
	Email     string `db:"email" json:"-"`
}
