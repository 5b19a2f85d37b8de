package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/msomdec/lesson-loop/internal/domain"
)

// ContactRepository implements domain.ContactRepository using SQLite.
type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db.SqlDB}
}

func (r *ContactRepository) Create(ctx context.Context, msg *domain.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, name, phone, message, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Name, msg.Phone, msg.Message, msg.IPAddress, msg.UserAgent, now,
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	msg.CreatedAt = now
	return nil
}
