package models

import "time"

type Client struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	ApiKey    string    `db:"api_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
