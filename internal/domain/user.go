package domain

type User struct {
	ID            int64  `db:"user_id" json:"user_id"`
	Username      string `db:"username" json:"username"`
	Email         string `db:"email" json:"email"`
	ContactNumber string `db:"contact_number" json:"contact_number"`
	Hash          string `db:"password_hash" json:"-"`
	Address       string `db:"address" json:"address"`
}

// Identity is what the auth guard attaches to a request.
type Identity struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"user_name"`
	Email     string `json:"email"`
	ContactNo string `json:"contact_no"`
}
