package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GauravMishra537/Kisaan-Dost/pkg/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const resetTokenTTL = time.Hour

// AccountService defines registration, authentication, profile and
// administrative account operations.
type AccountService interface {
	// Register creates a new account and returns it with a signed token.
	// Returns ErrEmailExists if the email is already taken.
	Register(ctx context.Context, dto RegisterDto) (*AuthDto, error)

	// Login authenticates by email and password.
	// Returns ErrInvalidCredentials or ErrAccountBlocked on failure.
	Login(ctx context.Context, email, password string) (*AuthDto, error)

	// SecurityQuestion returns the account's configured security question.
	SecurityQuestion(ctx context.Context, email string) (string, error)

	// VerifySecurityAnswer checks the answer and issues a one-time reset token.
	VerifySecurityAnswer(ctx context.Context, email, answer string) (string, error)

	// ResetPassword consumes a valid reset token and sets a new password.
	ResetPassword(ctx context.Context, email, token, newPassword string) error

	// Profile returns the caller's own profile with sensitive fields masked.
	Profile(ctx context.Context, id primitive.ObjectID) (*ProfileDto, error)

	// UpdateProfile applies a partial profile update. Empty fields are left unchanged.
	UpdateProfile(ctx context.Context, id primitive.ObjectID, dto ProfileUpdateDto) (*ProfileDto, error)

	// Delete removes an account.
	Delete(ctx context.Context, id primitive.ObjectID) error

	// List returns a page of account summaries, optionally filtered by role.
	List(ctx context.Context, role Role, page, limit int64) (*AccountPageDto, error)

	// SetBlocked flips the blocked flag on an account.
	SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*AccountSummaryDto, error)

	// SetAdmin promotes an account to Admin or demotes it back to Buyer.
	SetAdmin(ctx context.Context, id primitive.ObjectID, makeAdmin bool) (*AccountSummaryDto, error)
}

// Service implements AccountService on top of a Store and a token issuer.
type Service struct {
	store  Store
	tokens *auth.TokenService
}

// NewService creates a new instance of AccountService.
func NewService(store Store, tokens *auth.TokenService) *Service {
	return &Service{store: store, tokens: tokens}
}

// RegisterDto is the payload for creating a new account.
type RegisterDto struct {
	Name             string             `json:"name" validate:"required"`
	Email            string             `json:"email" validate:"required,email"`
	Password         string             `json:"password" validate:"required,min=6"`
	Role             Role               `json:"role"`
	MobileNo         string             `json:"mobileNo"`
	FarmName         string             `json:"farmName"`
	Address          string             `json:"address"`
	Structured       *StructuredAddress `json:"structuredAddress"`
	BankDetails      *BankDetails       `json:"bankDetails"`
	SecurityQuestion string             `json:"securityQuestion"`
	SecurityAnswer   string             `json:"securityAnswer"`
}

// AuthDto is returned from Register and Login.
type AuthDto struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	Blocked bool   `json:"isBlocked"`
	Token   string `json:"token"`
}

// ProfileDto is the caller-facing view of their own account.
type ProfileDto struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Role        Role               `json:"role"`
	MobileNo    string             `json:"mobileNo,omitempty"`
	FarmName    string             `json:"farmName,omitempty"`
	Address     string             `json:"address,omitempty"`
	Structured  *StructuredAddress `json:"structuredAddress,omitempty"`
	BankDetails *BankDetails       `json:"bankDetails,omitempty"`
	Cart        []CartItem         `json:"cart"`
	CreatedAt   string             `json:"createdAt"`
}

// ProfileUpdateDto is a partial profile update. Empty fields mean "no change".
type ProfileUpdateDto struct {
	Name             string             `json:"name"`
	Email            string             `json:"email" validate:"omitempty,email"`
	Password         string             `json:"password" validate:"omitempty,min=6"`
	MobileNo         string             `json:"mobileNo"`
	FarmName         string             `json:"farmName"`
	Address          string             `json:"address"`
	Structured       *StructuredAddress `json:"structuredAddress"`
	BankDetails      *BankDetails       `json:"bankDetails"`
	SecurityQuestion string             `json:"securityQuestion"`
	SecurityAnswer   string             `json:"securityAnswer"`
}

// AccountSummaryDto is the admin-facing view of an account.
type AccountSummaryDto struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Blocked   bool   `json:"isBlocked"`
	FarmName  string `json:"farmName,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// PageMeta describes a page of results.
type PageMeta struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
}

// AccountPageDto is one page of an admin account listing.
type AccountPageDto struct {
	Accounts []AccountSummaryDto `json:"users"`
	Meta     PageMeta            `json:"meta"`
}

// Register creates a new account and returns it with a signed token.
func (s *Service) Register(ctx context.Context, dto RegisterDto) (*AuthDto, error) {
	role := dto.Role
	if role == "" {
		role = RoleBuyer
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%q: %w", dto.Role, ErrInvalidRole)
	}

	hash, err := auth.HashPassword(dto.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Name:             dto.Name,
		Email:            strings.ToLower(dto.Email),
		PasswordHash:     hash,
		Role:             role,
		MobileNo:         dto.MobileNo,
		FarmName:         dto.FarmName,
		Address:          dto.Address,
		Structured:       dto.Structured,
		SecurityQuestion: dto.SecurityQuestion,
	}
	// Bank details are only meaningful for farmers.
	if role == RoleFarmer {
		a.BankDetails = dto.BankDetails
	}
	if dto.SecurityAnswer != "" {
		answerHash, err := auth.HashPassword(dto.SecurityAnswer)
		if err != nil {
			return nil, err
		}
		a.SecurityAnswer = answerHash
	}

	// Guard against duplicate emails before the unique index does.
	if _, err := s.store.FindByEmail(ctx, a.Email); err == nil {
		return nil, ErrEmailExists
	} else if err != ErrAccountNotFound {
		return nil, err
	}

	created, err := s.store.Insert(ctx, a)
	if err != nil {
		return nil, err
	}
	return s.toAuthDto(created)
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthDto, error) {
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if err == ErrAccountNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if a.Blocked {
		return nil, ErrAccountBlocked
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.toAuthDto(a)
}

// SecurityQuestion returns the account's configured security question.
func (s *Service) SecurityQuestion(ctx context.Context, email string) (string, error) {
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if a.SecurityQuestion == "" {
		return "", ErrNoSecurityQuestion
	}
	return a.SecurityQuestion, nil
}

// VerifySecurityAnswer checks the answer and issues a one-time reset token.
func (s *Service) VerifySecurityAnswer(ctx context.Context, email, answer string) (string, error) {
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if a.SecurityAnswer == "" {
		return "", ErrNoSecurityQuestion
	}
	if !auth.CheckPassword(a.SecurityAnswer, answer) {
		return "", ErrSecurityAnswerMismatch
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return "", err
	}
	a.ResetToken = token
	a.ResetTokenExpiry = time.Now().Add(resetTokenTTL)
	if err := s.store.Update(ctx, a); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword consumes a valid reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	a, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if a.ResetToken == "" || a.ResetToken != token || time.Now().After(a.ResetTokenExpiry) {
		return ErrResetTokenInvalid
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	a.ResetToken = ""
	a.ResetTokenExpiry = time.Time{}
	return s.store.Update(ctx, a)
}

// Profile returns the caller's own profile with sensitive fields masked.
func (s *Service) Profile(ctx context.Context, id primitive.ObjectID) (*ProfileDto, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProfileDto(a), nil
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, dto ProfileUpdateDto) (*ProfileDto, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != "" {
		a.Name = dto.Name
	}
	if dto.Email != "" {
		a.Email = strings.ToLower(dto.Email)
	}
	if dto.MobileNo != "" {
		a.MobileNo = dto.MobileNo
	}
	if dto.FarmName != "" {
		a.FarmName = dto.FarmName
	}
	if dto.Address != "" {
		a.Address = dto.Address
	}
	if dto.Structured != nil {
		a.Structured = dto.Structured
	}
	if dto.BankDetails != nil {
		a.BankDetails = dto.BankDetails
	}
	if dto.SecurityQuestion != "" {
		a.SecurityQuestion = dto.SecurityQuestion
	}
	if dto.SecurityAnswer != "" {
		answerHash, err := auth.HashPassword(dto.SecurityAnswer)
		if err != nil {
			return nil, err
		}
		a.SecurityAnswer = answerHash
	}
	if dto.Password != "" {
		hash, err := auth.HashPassword(dto.Password)
		if err != nil {
			return nil, err
		}
		a.PasswordHash = hash
	}

	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return toProfileDto(a), nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id)
}

// List returns a page of account summaries, optionally filtered by role.
func (s *Service) List(ctx context.Context, role Role, page, limit int64) (*AccountPageDto, error) {
	accounts, total, err := s.store.List(ctx, ListParams{
		Role:   role,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]AccountSummaryDto, len(accounts))
	for i := range accounts {
		summaries[i] = *toSummaryDto(&accounts[i])
	}
	return &AccountPageDto{
		Accounts: summaries,
		Meta:     PageMeta{Page: page, Limit: limit, Total: total},
	}, nil
}

// SetBlocked flips the blocked flag on an account.
func (s *Service) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (*AccountSummaryDto, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Blocked = blocked
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return toSummaryDto(a), nil
}

// SetAdmin promotes an account to Admin or demotes it back to Buyer.
func (s *Service) SetAdmin(ctx context.Context, id primitive.ObjectID, makeAdmin bool) (*AccountSummaryDto, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if makeAdmin {
		a.Role = RoleAdmin
	} else if a.Role == RoleAdmin {
		a.Role = RoleBuyer
	}
	if err := s.store.Update(ctx, a); err != nil {
		return nil, err
	}
	return toSummaryDto(a), nil
}

func (s *Service) toAuthDto(a *Account) (*AuthDto, error) {
	token, err := s.tokens.Issue(a.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &AuthDto{
		ID:      a.ID.Hex(),
		Name:    a.Name,
		Email:   a.Email,
		Role:    a.Role,
		Blocked: a.Blocked,
		Token:   token,
	}, nil
}

func toProfileDto(a *Account) *ProfileDto {
	return &ProfileDto{
		ID:          a.ID.Hex(),
		Name:        a.Name,
		Email:       a.Email,
		Role:        a.Role,
		MobileNo:    a.MobileNo,
		FarmName:    a.FarmName,
		Address:     a.Address,
		Structured:  a.Structured,
		BankDetails: maskBankDetails(a.BankDetails),
		Cart:        a.Cart,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

func toSummaryDto(a *Account) *AccountSummaryDto {
	return &AccountSummaryDto{
		ID:        a.ID.Hex(),
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Blocked:   a.Blocked,
		FarmName:  a.FarmName,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

// maskBankDetails hides all but the last four digits of the account number.
func maskBankDetails(b *BankDetails) *BankDetails {
	if b == nil {
		return nil
	}
	masked := *b
	if n := len(masked.AccountNumber); n > 4 {
		masked.AccountNumber = "****" + masked.AccountNumber[n-4:]
	}
	return &masked
}
