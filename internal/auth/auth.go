// Package auth implements the storefront's mock account flow: register,
// login, logout and the profile of the logged in user.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/blob"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// keyCredentials holds the registered account and survives logout.
const keyCredentials = "user_credentials"

// Profile is the public part of an account.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type credentials struct {
	Profile      Profile `json:"profile"`
	PasswordHash string  `json:"password_hash"`
}

type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r RegisterRequest) validate() error {
	errs := fieldErrors{}
	errs.check(!blank(r.FirstName), "first_name", "required")
	errs.check(!blank(r.LastName), "last_name", "required")
	errs.check(ValidEmail(r.Email), "email", "must be a valid email address")
	errs.check(ValidPhone(r.Phone), "phone", "must be 11 digits")
	errs.check(ValidPassword(r.Password), "password", "must be at least 8 characters with upper, lower case and a digit")
	errs.check(r.Password == r.ConfirmPassword, "confirm_password", "does not match password")
	return errs.err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) validate() error {
	errs := fieldErrors{}
	errs.check(ValidEmail(r.Email), "email", "must be a valid email address")
	errs.check(ValidPassword(r.Password), "password", "must be at least 8 characters with upper, lower case and a digit")
	return errs.err()
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (r ChangePasswordRequest) validate() error {
	errs := fieldErrors{}
	errs.check(r.CurrentPassword != "", "current_password", "required")
	errs.check(ValidPassword(r.NewPassword), "new_password", "must be at least 8 characters with upper, lower case and a digit")
	errs.check(r.NewPassword == r.ConfirmPassword, "confirm_password", "does not match password")
	return errs.err()
}

// Session is returned by Register and Login.
type Session struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

// Reloader is any store that must re-read storage after Register resets it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Service runs the account flow of one session. It is not safe for
// concurrent use.
type Service struct {
	sessionID string
	blobs     blob.Store
	login     *session.Broadcaster
	tokens    *Tokens
	log       logrus.FieldLogger
	reloaders []Reloader
}

func NewService(sessionID string, blobs blob.Store, login *session.Broadcaster, tokens *Tokens, log logrus.FieldLogger, reloaders ...Reloader) *Service {
	return &Service{
		sessionID: sessionID,
		blobs:     blobs,
		login:     login,
		tokens:    tokens,
		log:       log,
		reloaders: reloaders,
	}
}

// LoggedIn reports the session's login flag.
func (s *Service) LoggedIn() bool {
	return s.login.Get()
}

// Register creates the account, resets the cart, wishlist and addresses to
// empty and logs the session in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password failed: %w", err)
	}
	profile := Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := s.writeJSON(ctx, keyCredentials, credentials{Profile: profile, PasswordHash: string(hash)}); err != nil {
		return Session{}, err
	}

	for _, key := range []string{blob.KeyCart, blob.KeyWishlist, blob.KeyAddresses} {
		if err := s.blobs.Write(ctx, key, "[]"); err != nil {
			return Session{}, fmt.Errorf("failed to reset %s: %w", key, err)
		}
	}
	for _, r := range s.reloaders {
		if err := r.Reload(ctx); err != nil {
			return Session{}, err
		}
	}

	out, err := s.start(ctx, profile)
	if err != nil {
		return Session{}, err
	}
	s.log.WithField("email", profile.Email).Info("account registered")
	return out, nil
}

// Login logs the session in. A registered email must present its password;
// any other well-formed credentials are accepted with a placeholder profile.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		return Session{}, err
	}

	profile := Profile{FirstName: "John", LastName: "Doe", Email: req.Email}
	creds, err := s.credentials(ctx)
	if err != nil {
		return Session{}, err
	}
	if creds != nil && strings.EqualFold(creds.Profile.Email, req.Email) {
		if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
			return Session{}, ErrInvalidCredentials
		}
		profile = creds.Profile
	}

	return s.start(ctx, profile)
}

// Logout forgets the token and profile and logs the session out. The
// registered account and the stored collections are kept.
func (s *Service) Logout(ctx context.Context) error {
	for _, key := range []string{blob.KeyUserName, blob.KeyUserToken, blob.KeyUser} {
		if err := s.blobs.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	s.login.Set(false)
	return nil
}

// Profile returns the logged in user's profile.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	if !s.login.Get() {
		return Profile{}, ErrNotLoggedIn
	}
	raw, err := blob.ReadOr(ctx, s.blobs, blob.KeyUser, "{}")
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.log.WithError(err).Warn("discarding unreadable profile")
		return Profile{}, nil
	}
	return p, nil
}

// UpdateProfile replaces the logged in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	if !s.login.Get() {
		return Profile{}, ErrNotLoggedIn
	}
	p.Email = strings.TrimSpace(p.Email)
	errs := fieldErrors{}
	errs.check(!blank(p.FirstName), "first_name", "required")
	errs.check(ValidEmail(p.Email), "email", "must be a valid email address")
	errs.check(p.Phone == "" || ValidPhone(p.Phone), "phone", "must be 11 digits")
	if err := errs.err(); err != nil {
		return Profile{}, err
	}

	current, err := s.Profile(ctx)
	if err != nil {
		return Profile{}, err
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return Profile{}, err
	}
	if creds != nil && strings.EqualFold(creds.Profile.Email, current.Email) {
		creds.Profile = p
		if err := s.writeJSON(ctx, keyCredentials, creds); err != nil {
			return Profile{}, err
		}
	}

	if err := s.writeJSON(ctx, blob.KeyUser, p); err != nil {
		return Profile{}, err
	}
	if err := s.blobs.Write(ctx, blob.KeyUserName, p.FirstName); err != nil {
		return Profile{}, fmt.Errorf("failed to write user name: %w", err)
	}
	return p, nil
}

// ChangePassword replaces the logged in user's password. A registered account
// must present its current password; a mock login gets an account for its
// profile, so later logins with that email need the new password.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if !s.login.Get() {
		return ErrNotLoggedIn
	}
	if err := req.validate(); err != nil {
		return err
	}

	current, err := s.Profile(ctx)
	if err != nil {
		return err
	}
	creds, err := s.credentials(ctx)
	if err != nil {
		return err
	}
	if creds != nil && strings.EqualFold(creds.Profile.Email, current.Email) {
		if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return ErrInvalidCredentials
		}
	} else {
		creds = &credentials{Profile: current}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password failed: %w", err)
	}
	creds.PasswordHash = string(hash)
	if err := s.writeJSON(ctx, keyCredentials, creds); err != nil {
		return err
	}
	s.log.WithField("email", current.Email).Info("password changed")
	return nil
}

// Authenticate checks bearer, or the stored token when bearer is empty, and
// requires it to belong to this session.
func (s *Service) Authenticate(ctx context.Context, bearer string) (*Claims, error) {
	if !s.login.Get() {
		return nil, ErrNotLoggedIn
	}
	token := bearer
	if token == "" {
		stored, err := blob.ReadOr(ctx, s.blobs, blob.KeyUserToken, "")
		if err != nil {
			return nil, fmt.Errorf("failed to read token: %w", err)
		}
		token = stored
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject != s.sessionID {
		return nil, fmt.Errorf("%w: issued for another session", ErrInvalidToken)
	}
	return claims, nil
}

func (s *Service) start(ctx context.Context, p Profile) (Session, error) {
	token, err := s.tokens.Issue(s.sessionID, p.Email)
	if err != nil {
		return Session{}, err
	}
	if err := s.blobs.Write(ctx, blob.KeyUserToken, token); err != nil {
		return Session{}, fmt.Errorf("failed to write token: %w", err)
	}
	if err := s.blobs.Write(ctx, blob.KeyUserName, p.FirstName); err != nil {
		return Session{}, fmt.Errorf("failed to write user name: %w", err)
	}
	if err := s.writeJSON(ctx, blob.KeyUser, p); err != nil {
		return Session{}, err
	}
	s.login.Set(true)
	return Session{Token: token, Profile: p}, nil
}

func (s *Service) credentials(ctx context.Context) (*credentials, error) {
	raw, err := s.blobs.Read(ctx, keyCredentials)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	var c credentials
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.log.WithError(err).Warn("discarding unreadable credentials")
		return nil, nil
	}
	return &c, nil
}

func (s *Service) writeJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := s.blobs.Write(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
