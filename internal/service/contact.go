package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/msomdec/lesson-loop/internal/domain"
)

const maxUserAgentLength = 500

// ContactService stores messages left through the public contact form.
type ContactService struct {
	contacts domain.ContactRepository
}

func NewContactService(contacts domain.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// Create stores a contact message. ip may be empty when the client address
// is unknown; the user agent is cut to its first 500 characters.
func (s *ContactService) Create(ctx context.Context, name, phone, message, ip, userAgent string) (*domain.ContactMessage, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", domain.ErrInvalidInput)
	}

	if r := []rune(userAgent); len(r) > maxUserAgentLength {
		userAgent = string(r[:maxUserAgentLength])
	}

	msg := &domain.ContactMessage{
		Name:      name,
		Phone:     phone,
		Message:   strings.TrimSpace(message),
		UserAgent: userAgent,
	}
	if ip != "" {
		msg.IPAddress = &ip
	}

	if err := s.contacts.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}
