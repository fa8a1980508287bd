// Package identity enforces account uniqueness, validates registrations and
// hashes credentials.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salgados/internal/models"
	"salgados/internal/storage"
)

// AssertUnique fails with a DuplicateError when any existing record matches candidate.
// match reports the offending field and value.
func AssertUnique[T any](collection string, existing []T, candidate T, match func(existing, candidate T) (field, value string, dup bool)) error {
	for _, rec := range existing {
		if field, value, dup := match(rec, candidate); dup {
			return &models.DuplicateError{Collection: collection, Field: field, Value: value}
		}
	}
	return nil
}

// SameUsername compares usernames exactly, the way sign-in looks them up.
func SameUsername(existing, candidate models.AdminAccount) (string, string, bool) {
	return "username", candidate.Username, existing.Username == candidate.Username
}

// SamePhoneOrEmail matches when either the phone or the email is already taken.
func SamePhoneOrEmail(existing, candidate models.CustomerAccount) (string, string, bool) {
	if existing.Phone == candidate.Phone {
		return "phone", candidate.Phone, true
	}
	if candidate.Email != "" && strings.EqualFold(existing.Email, candidate.Email) {
		return "email", candidate.Email, true
	}
	return "", "", false
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares against a bcrypt hash. Stored values that are not
// bcrypt hashes are compared verbatim so legacy plaintext records still sign in.
func CheckPassword(stored, password string) bool {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return stored == password
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

const tempPasswordAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// TemporaryPassword returns a random password of n characters.
func TemporaryPassword(n int) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("temporary password: %w", err)
		}
		sb.WriteByte(tempPasswordAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

const MinPasswordLength = 6

var phonePattern = regexp.MustCompile(`^\(?\d{2}\)?\s?9?\d{4}-?\d{4}$`)

// NormalizePhone strips formatting so that stored phones compare by digits.
func NormalizePhone(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

type Registration struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	Number          string `json:"number"`
	Complement      string `json:"complement,omitempty"`
	City            string `json:"city"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type fieldError struct {
	field string
	msg   string
}

func (e fieldError) Error() string { return e.field + ": " + e.msg }

// ValidateRegistration checks every field and returns a ValidationError
// carrying one message per failing field.
func ValidateRegistration(r Registration) error {
	var errs []error
	required := []struct{ field, value string }{
		{"name", r.Name}, {"phone", r.Phone}, {"email", r.Email},
		{"address", r.Address}, {"number", r.Number}, {"city", r.City},
		{"password", r.Password}, {"confirmPassword", r.ConfirmPassword},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fieldError{f.field, "campo obrigatório"})
		}
	}
	if r.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		errs = append(errs, fieldError{"phone", "telefone inválido"})
	}
	if r.Email != "" {
		if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != strings.TrimSpace(r.Email) {
			errs = append(errs, fieldError{"email", "e-mail inválido"})
		}
	}
	if r.Password != "" && len(r.Password) < MinPasswordLength {
		errs = append(errs, fieldError{"password", fmt.Sprintf("mínimo de %d caracteres", MinPasswordLength)})
	}
	if r.ConfirmPassword != "" && r.Password != r.ConfirmPassword {
		errs = append(errs, fieldError{"confirmPassword", "as senhas não coincidem"})
	}
	return toValidationError(errors.Join(errs...))
}

// ValidateAdmin checks the inputs of a new administrator account.
func ValidateAdmin(username, password string, role models.Role) error {
	var errs []error
	if strings.TrimSpace(username) == "" {
		errs = append(errs, fieldError{"username", "campo obrigatório"})
	}
	if password == "" {
		errs = append(errs, fieldError{"password", "campo obrigatório"})
	}
	if !role.Valid() {
		errs = append(errs, fieldError{"role", fmt.Sprintf("função desconhecida %q", role)})
	}
	return toValidationError(errors.Join(errs...))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	verr := &models.ValidationError{}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var fe fieldError
			if errors.As(e, &fe) {
				verr.Add(fe.field, fe.msg)
			}
		}
	}
	return verr.OrNil()
}

// NewCustomer builds the account stored for a valid registration.
func NewCustomer(r Registration, now time.Time) (models.CustomerAccount, error) {
	hash, err := HashPassword(r.Password)
	if err != nil {
		return models.CustomerAccount{}, err
	}
	return models.CustomerAccount{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(r.Name),
		Phone:      NormalizePhone(r.Phone),
		Email:      strings.ToLower(strings.TrimSpace(r.Email)),
		Address:    strings.TrimSpace(r.Address),
		Number:     strings.TrimSpace(r.Number),
		Complement: strings.TrimSpace(r.Complement),
		City:       strings.TrimSpace(r.City),
		Password:   hash,
		CreatedAt:  now.UTC(),
	}, nil
}

func NewAdmin(username, password string, role models.Role, now time.Time) (models.AdminAccount, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.AdminAccount{}, err
	}
	return models.AdminAccount{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(username),
		Password:  hash,
		Role:      role,
		CreatedAt: now.UTC(),
	}, nil
}

// Collections checked by AssertUnique.
const (
	AdminsCollection    = storage.KeyAdminUsers
	CustomersCollection = storage.KeyUsers
)
