package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"grocerly/internal/config"
	"grocerly/internal/domain"
	"grocerly/internal/repos"
	"grocerly/internal/validate"
)

// Claims is the access token payload.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"user_name"`
	Email     string `json:"email"`
	ContactNo string `json:"contact_no"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username  string `json:"username" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	ContactNo string `json:"contact_no" validate:"required,contact"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email     string `json:"email"`
	ContactNo string `json:"contact_no"`
	Password  string `json:"password"`
}

type ProfileInput struct {
	Username      string  `json:"username" validate:"required,max=50"`
	Email         string  `json:"email" validate:"required,email,max=100"`
	ContactNumber string  `json:"contact_number" validate:"required,contact"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
}

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
}

func NewAuthService(users *repos.UserRepo, cfg config.Auth) *AuthService {
	return &AuthService{Users: users, Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ContactNo = strings.TrimSpace(in.ContactNo)
	if in.Username == "" || in.Email == "" || in.ContactNo == "" || in.Password == "" {
		return nil, invalid("Please provide all required fields")
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err.Error())
	}

	emailTaken, contactTaken, err := s.Users.Taken(ctx, in.Email, in.ContactNo, 0)
	if err != nil {
		return nil, failed("Could not check account", err)
	}
	if emailTaken {
		return nil, conflict("User with this email already exists")
	}
	if contactTaken {
		return nil, conflict("User with this contact number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, failed("Could not hash password", err)
	}
	u := &domain.User{Username: in.Username, Email: in.Email, ContactNumber: in.ContactNo, Hash: string(hash)}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		if repos.IsUniqueViolation(err, "") {
			return nil, conflict("User already exists")
		}
		return nil, failed("Could not create account", err)
	}
	u.ID = id
	return u, nil
}

// Login verifies the password and issues a token that replaces any earlier one for the user.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *domain.User, error) {
	email := strings.TrimSpace(in.Email)
	contact := strings.TrimSpace(in.ContactNo)
	if in.Password == "" || (email == "" && contact == "") {
		return "", nil, invalid("Please provide either contact number or email, and password.")
	}

	var (
		u   *domain.User
		err error
	)
	if contact != "" {
		u, err = s.Users.ByContact(ctx, contact)
	} else {
		u, err = s.Users.ByEmail(ctx, email)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, notFound("User not found.")
	}
	if err != nil {
		return "", nil, failed("Could not load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(in.Password)) != nil {
		return "", nil, unauth("Invalid password.")
	}

	token, err := s.issue(u)
	if err != nil {
		return "", nil, failed("Could not sign token", err)
	}
	if err := s.Users.ReplaceToken(ctx, u.ID, u.Username, token); err != nil {
		return "", nil, failed("Could not store token", err)
	}
	return token, u, nil
}

func (s *AuthService) issue(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		ContactNo: u.ContactNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.TTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// Verify checks the signature and that the token has not been superseded or revoked.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, unauth("Access token required")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, &Error{Kind: KindAuth, Msg: "Invalid token. Please login again.", Err: err}
	}

	ok, err := s.Users.TokenActive(ctx, claims.UserID, token)
	if err != nil {
		return nil, failed("Could not check token", err)
	}
	if !ok {
		return nil, unauth("Token revoked or invalid. Please login again.")
	}
	return &domain.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
		ContactNo: claims.ContactNo,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.Users.DeleteToken(ctx, token); err != nil {
		return failed("Could not log out", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, failed("Could not load user", err)
	}
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	if in.Username == "" || in.Email == "" || in.ContactNumber == "" {
		return nil, invalid("Username, email, and contact number are required")
	}
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err.Error())
	}

	emailTaken, contactTaken, err := s.Users.Taken(ctx, in.Email, in.ContactNumber, userID)
	if err != nil {
		return nil, failed("Could not check account", err)
	}
	if emailTaken {
		return nil, conflict("Email already in use by another account")
	}
	if contactTaken {
		return nil, conflict("Contact number already in use by another account")
	}

	var addr sql.NullString
	if in.Address != nil {
		if a := strings.TrimSpace(*in.Address); a != "" {
			addr = sql.NullString{String: a, Valid: true}
		}
	}
	if err := s.Users.UpdateProfile(ctx, userID, in.Username, in.Email, in.ContactNumber, addr); err != nil {
		if repos.IsUniqueViolation(err, "") {
			return nil, conflict("Email or contact number already in use by another account")
		}
		return nil, failed("Could not update profile", err)
	}
	return s.Profile(ctx, userID)
}
