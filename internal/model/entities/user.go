package entities

type User struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone,omitempty"`
	Location  string `db:"location" json:"location,omitempty"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
