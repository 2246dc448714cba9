// Package auth registers users with hashed credentials and issues the tokens
// the API and panel pages accept.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"mealdesk/internal/models"
	"mealdesk/internal/panel"
	"mealdesk/internal/store"
)

var (
	// ErrInvalidCredentials covers unknown logins and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginTaken is returned when the name is already registered.
	ErrLoginTaken = errors.New("login already registered")
)

const issuer = "mealdesk"

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Name   string `json:"name"`
	Office string `json:"office"`
	jwt.StandardClaims
}

// Service registers users and logs them in
type Service struct {
	creds  store.CredentialStore
	panel  *panel.Panel
	secret []byte
	ttl    time.Duration
	log    *log.Logger
	now    func() time.Time
}

// NewService creates the auth service. A nil logger writes to stderr.
func NewService(creds store.CredentialStore, p *panel.Panel, secret string, ttl time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stderr, "[auth] ", log.LstdFlags)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		creds:  creds,
		panel:  p,
		secret: []byte(secret),
		ttl:    ttl,
		log:    logger,
		now:    time.Now,
	}
}

// Secret returns the signing key for the middleware
func (s *Service) Secret() []byte {
	return s.secret
}

// Register creates the credential and then the profile with the same id.
// The two steps are not atomic: if the profile insert fails the credential
// stays behind and is logged as orphaned.
func (s *Service) Register(ctx context.Context, form panel.UserForm) (models.User, error) {
	if err := form.Validate(); err != nil {
		return models.User{}, err
	}
	name := strings.TrimSpace(form.Name)
	office := strings.TrimSpace(form.Office)
	if err := s.panel.CheckOffice(office); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	login := form.LoginName()
	cred, err := s.creds.InsertCredential(ctx, models.Credential{Login: login, PasswordHash: string(hash)})
	if errors.Is(err, store.ErrDuplicate) {
		return models.User{}, fmt.Errorf("%q: %w", login, ErrLoginTaken)
	}
	if err != nil {
		s.log.Printf("register %q: credential insert failed: %v", name, err)
		return models.User{}, fmt.Errorf("create credential: %w", err)
	}

	user, err := s.panel.AddUser(ctx, models.User{ID: cred.ID, Name: name, Office: office})
	if err != nil {
		s.log.Printf("register %q: credential %d has no profile: %v", name, cred.ID, err)
		return models.User{}, err
	}
	return user, nil
}

// Login checks the password and returns a signed token
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	cred, err := s.creds.FindCredential(ctx, strings.TrimSpace(login))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("find credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	name, office := cred.Login, ""
	for _, u := range s.panel.Users() {
		if u.ID == cred.ID {
			name, office = u.Name, u.Office
			break
		}
	}
	return s.issue(cred.ID, name, office)
}

func (s *Service) issue(id int64, name, office string) (string, error) {
	now := s.now()
	claims := Claims{
		Name:   name,
		Office: office,
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatInt(id, 10),
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies an HS256 token signed with secret
func ParseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
