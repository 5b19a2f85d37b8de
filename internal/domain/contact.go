package domain

import (
	"context"
	"time"
)

// ContactMessage is an anonymous enquiry left through the contact form.
type ContactMessage struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Message   string    `db:"message"`
	IPAddress *string   `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
}

type ContactRepository interface {
	Create(ctx context.Context, msg *ContactMessage) error
}
