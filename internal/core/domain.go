package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		RegisteredAt time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Amount      Money
		Category    string
		Description string // optional
		OccurredAt  time.Time
	}

	// TransactionInput carries the user-editable fields of a transaction.
	TransactionInput struct {
		Type        TransactionType
		Amount      Money
		Category    string
		Description string
	}
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingSession     = errors.New("missing or invalid session")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyPassword      = errors.New("empty password")
	ErrTooLong            = errors.New("too long")
)

const (
	MaxCategoryLen    = 100
	MaxDescriptionLen = 200
	MaxNameLen        = 120
	MaxPasswordBytes  = 72
)

// ParseTransactionType maps form input onto the closed set of types.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(in.Category) > MaxCategoryLen {
		return fmt.Errorf("category %w (max %d characters)", ErrTooLong, MaxCategoryLen)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLen {
		return fmt.Errorf("description %w (max %d characters)", ErrTooLong, MaxDescriptionLen)
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks the user-supplied registration fields.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("name %w (max %d characters)", ErrTooLong, MaxNameLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	if password == "" {
		return ErrEmptyPassword
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password %w (max %d bytes)", ErrTooLong, MaxPasswordBytes)
	}
	return nil
}
