package domain

import "time"

type User struct {
	ID           int64     `db:"id" json:"id"`
	TgID         *int64    `db:"tg_id" json:"tgId,omitempty"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"firstName,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
