package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"waste_tracker/internal/models"
	"waste_tracker/internal/store"
)

const minPasswordLength = 8

// Credentials issues and verifies bearer tokens.
type Credentials interface {
	Issue(userID uuid.UUID, role models.Role) (string, error)
	Verify(token string) (uuid.UUID, models.Role, error)
}

// AdminBootstrap describes the well-known administrator account recreated by
// CreateInitialAdmin. Key guards the operation; an empty key disables it.
type AdminBootstrap struct {
	Email    string
	Password string
	FullName string
	Key      string
}

type DriverInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type AccountService struct {
	store store.Store
	creds Credentials
	admin AdminBootstrap
	cost  int
}

func NewAccountService(s store.Store, creds Credentials, admin AdminBootstrap) *AccountService {
	return &AccountService{store: s, creds: creds, admin: admin, cost: bcrypt.DefaultCost}
}

// Login checks the password and returns a signed token for the profile.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.Profile, error) {
	acct, err := s.store.FindAccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, translate(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}
	p, err := s.store.Profiles().Get(ctx, acct.ID)
	if err != nil {
		return "", nil, translate(err)
	}
	if !p.IsActive {
		return "", nil, fmt.Errorf("%w: account disabled", ErrForbidden)
	}
	token, err := s.creds.Issue(p.ID, p.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, p, nil
}

// Profile returns the caller's own profile.
func (s *AccountService) Profile(ctx context.Context, sess Session) (*models.Profile, error) {
	if sess.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	p, err := s.store.Profiles().Get(ctx, sess.UserID)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateInitialAdmin recreates the configured administrator: an existing
// account with that email is removed along with its profile first.
func (s *AccountService) CreateInitialAdmin(ctx context.Context, key string) (*models.Profile, error) {
	if s.admin.Key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.admin.Key)) != 1 {
		return nil, ErrUnauthorized
	}
	if err := checkEmail(s.admin.Email); err != nil {
		return nil, err
	}
	if len(s.admin.Password) < minPasswordLength {
		return nil, invalid("password", "must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.admin.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &models.Profile{
		Email:    s.admin.Email,
		FullName: s.admin.FullName,
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		existing, err := tx.FindAccountByEmail(ctx, s.admin.Email)
		switch {
		case err == nil:
			if err := removeAccount(ctx, tx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return translate(err)
		}
		return createAccount(ctx, tx, profile, string(hash))
	})
	if err != nil {
		logrus.WithError(err).Error("create initial admin")
		return nil, err
	}
	logrus.WithField("user_id", profile.ID).Info("initial admin created")
	return profile, nil
}

func (s *AccountService) CreateDriver(ctx context.Context, sess Session, in DriverInput) (*models.Profile, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, invalid("full_name", "is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", "must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	profile := &models.Profile{
		Email:    email,
		FullName: name,
		Role:     models.RoleDriver,
		Phone:    strings.TrimSpace(in.Phone),
		IsActive: true,
	}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		return createAccount(ctx, tx, profile, string(hash))
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *AccountService) ListDrivers(ctx context.Context, sess Session, activeOnly bool) ([]models.Profile, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	out, err := s.store.Profiles().List(ctx, store.Query{Role: models.RoleDriver, ActiveOnly: activeOnly})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *AccountService) SetDriverActive(ctx context.Context, sess Session, id uuid.UUID, active bool) (*models.Profile, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	p, err := s.driver(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsActive = active
	if err := s.store.Profiles().Save(ctx, p); err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// DeleteDriver removes a driver's profile and account. Drivers with missions
// are kept; deactivate them instead.
func (s *AccountService) DeleteDriver(ctx context.Context, bearer string, id uuid.UUID) error {
	if _, err := s.authorizeAdmin(ctx, bearer); err != nil {
		return err
	}
	if _, err := s.driver(ctx, id); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx store.Store) error {
		n, err := tx.CountMissions(ctx, store.MissionQuery{DriverID: id})
		if err != nil {
			return translate(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: driver has %d mission(s); deactivate the driver instead", ErrIntegrity, n)
		}
		return removeAccount(ctx, tx, id)
	})
}

func (s *AccountService) UpdateDriverPassword(ctx context.Context, bearer string, id uuid.UUID, password string) error {
	if _, err := s.authorizeAdmin(ctx, bearer); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return invalid("password", "must be at least %d characters", minPasswordLength)
	}
	if _, err := s.driver(ctx, id); err != nil {
		return err
	}
	acct, err := s.store.Accounts().Get(ctx, id)
	if err != nil {
		return translate(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = string(hash)
	return translate(s.store.Accounts().Save(ctx, acct))
}

// authorizeAdmin verifies bearer and re-reads the caller's role from the
// store rather than trusting the token claim.
func (s *AccountService) authorizeAdmin(ctx context.Context, bearer string) (Session, error) {
	if bearer == "" {
		return Session{}, ErrUnauthorized
	}
	userID, _, err := s.creds.Verify(bearer)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	p, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, translate(err)
	}
	if p.Role != models.RoleSuperAdmin || !p.IsActive {
		return Session{}, ErrForbidden
	}
	return Session{UserID: p.ID, Role: p.Role}, nil
}

func (s *AccountService) driver(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, err := s.store.Profiles().Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if p.Role != models.RoleDriver {
		return nil, fmt.Errorf("%w: driver %s", ErrNotFound, id)
	}
	return p, nil
}

func createAccount(ctx context.Context, tx store.Store, p *models.Profile, hash string) error {
	acct := &models.Account{Email: p.Email, PasswordHash: hash}
	if err := tx.Accounts().Create(ctx, acct); err != nil {
		return translate(err)
	}
	p.ID = acct.ID
	return translate(tx.Profiles().Create(ctx, p))
}

func removeAccount(ctx context.Context, tx store.Store, id uuid.UUID) error {
	if err := tx.Profiles().Delete(ctx, id); err != nil {
		return translate(err)
	}
	return translate(tx.Accounts().Delete(ctx, id))
}

func checkEmail(email string) error {
	if email == "" {
		return invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("email", "is not a valid address")
	}
	return nil
}
