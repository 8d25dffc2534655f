package guest

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
)

// minPhoneDigits is the shortest phone number accepted by the sign-up form.
const minPhoneDigits = 7

// Profile is what a new guest fills in. Email is optional.
type Profile struct {
	Name  string
	Phone string
	Email string
}

// Validate trims the profile and checks the required fields.
func (p *Profile) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)

	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}

	digits := 0
	for _, r := range p.Phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return fmt.Errorf("%w: phone number is required", ErrInvalidProfile)
	}

	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, p.Email)
		}
	}
	return nil
}

// ChatSession is an open conversation with the wedding assistant.
type ChatSession struct {
	SessionID    string
	Greeting     string
	WeddingTitle string

	AccessCode string
	GuestName  string
	// GuestID is set when the session was opened right after registration.
	GuestID           string
	AlreadyRegistered bool
}

// RegisterAndStartChat signs up a new guest, opens a chat under the same
// name and remembers the guest for accessCode.
//
// A registration failure returns ErrRegistration and saves nothing. Once
// registration succeeds the guest is remembered even if the chat cannot be
// opened, in which case ErrChatStart is returned.
func (s *Store) RegisterAndStartChat(ctx context.Context, accessCode string, profile Profile) (*ChatSession, error) {
	code, err := normalizeCode(accessCode)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	log := s.logger.With("access_code", code)

	reg, err := s.backend.RegisterGuest(ctx, code, api.RegistrationRequest{
		Name:        profile.Name,
		PhoneNumber: profile.Phone,
		Email:       profile.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	if !reg.Success || reg.GuestID == "" {
		return nil, fmt.Errorf("%w: server did not confirm the registration", ErrRegistration)
	}

	name := reg.GuestName
	if name == "" {
		name = profile.Name
	}
	guestID := reg.GuestID.String()

	if err := s.Save(ctx, code, guestID, name); err != nil {
		log.Warn(ctx, "registered guest could not be remembered", "guest_id", guestID, "error", err)
	} else {
		log.Info(ctx, "guest registered", "guest_id", guestID, "already_registered", reg.AlreadyRegistered)
	}

	chat, err := s.startChat(ctx, code, profile.Name)
	if err != nil {
		return nil, err
	}
	chat.GuestID = guestID
	chat.GuestName = name
	chat.AlreadyRegistered = reg.AlreadyRegistered
	return chat, nil
}

// ContinueChat opens a chat for a returning guest without registering again.
func (s *Store) ContinueChat(ctx context.Context, accessCode, rememberedName string) (*ChatSession, error) {
	code, err := normalizeCode(accessCode)
	if err != nil {
		return nil, err
	}
	return s.startChat(ctx, code, strings.TrimSpace(rememberedName))
}

// SendMessage posts text to an open chat and returns the assistant's reply.
func (s *Store) SendMessage(ctx context.Context, chat *ChatSession, text string) (string, error) {
	if chat == nil || chat.SessionID == "" {
		return "", ErrNoSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	reply, err := s.backend.SendMessage(ctx, chat.SessionID, text)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	if id := reply.SessionID.String(); id != "" {
		chat.SessionID = id
	}
	return reply.Response, nil
}

func (s *Store) startChat(ctx context.Context, code, guestName string) (*ChatSession, error) {
	start, err := s.backend.StartChat(ctx, code, guestName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChatStart, err)
	}

	return &ChatSession{
		SessionID:    start.SessionID.String(),
		Greeting:     start.Greeting,
		WeddingTitle: start.WeddingTitle,
		AccessCode:   code,
		GuestName:    guestName,
	}, nil
}
