package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reportdesk/report-portal/internal/constants"
	"github.com/reportdesk/report-portal/internal/models"
	"github.com/reportdesk/report-portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired         = errors.New("username is required")
	ErrUsernameTaken            = errors.New("username already exists")
	ErrInvalidCredentials       = errors.New("invalid username or password")
	ErrPasswordTooShort         = errors.New("password too short")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidRole              = errors.New("role must be admin, department or unit")
	ErrOrganizationRequired     = errors.New("organization_id is required for department and unit users")
	ErrOrganizationTypeMismatch = errors.New("organization type does not match the user role")
	ErrFailedToHashPassword     = errors.New("failed to hash password")
	ErrCannotDeleteYourself     = errors.New("cannot delete your own account")
	ErrUserOrganizationNotFound = errors.New("organization of the user not found")
)

// AuthService handles credentials and user accounts.
type AuthService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
	}
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user. The user's
// role and organization are what the session carries.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// CreateUserInput represents the information needed to create a user.
type CreateUserInput struct {
	Username       string
	Password       string
	Role           models.UserRole
	OrganizationID *uint64
}

// UpdateUserInput represents changes to a user. Nil fields are left alone.
type UpdateUserInput struct {
	Password       *string
	Role           *models.UserRole
	OrganizationID *uint64
}

// ListUsersInput represents filters for listing users.
type ListUsersInput struct {
	Role           *models.UserRole
	OrganizationID *uint64
	Page           int
	PageSize       int
}

// CreateUser creates a user with a bcrypt-hashed password.
func (s *AuthService) CreateUser(input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if err := s.checkRole(input.Role, input.OrganizationID); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       username,
		PasswordHash:   hash,
		Role:           input.Role,
		OrganizationID: input.OrganizationID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ListUsers lists users with filtering and pagination.
func (s *AuthService) ListUsers(input ListUsersInput) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(repository.UserFilter{
		Role:           input.Role,
		OrganizationID: input.OrganizationID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateUser changes a user's password, role or organization.
func (s *AuthService) UpdateUser(id uint64, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	role := user.Role
	if input.Role != nil {
		role = *input.Role
	}
	orgID := user.OrganizationID
	if input.OrganizationID != nil {
		orgID = input.OrganizationID
	}
	if role == models.RoleAdmin && input.OrganizationID == nil {
		orgID = nil
	}
	if err := s.checkRole(role, orgID); err != nil {
		return nil, err
	}
	user.Role = role
	user.OrganizationID = orgID

	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a user. Users cannot delete themselves.
func (s *AuthService) DeleteUser(actorID, id uint64) error {
	if actorID == id {
		return ErrCannotDeleteYourself
	}
	if err := s.userRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// checkRole verifies that role is known and that department and unit users
// belong to an organization of the matching type.
func (s *AuthService) checkRole(role models.UserRole, orgID *uint64) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role == models.RoleAdmin {
		return nil
	}
	if orgID == nil {
		return ErrOrganizationRequired
	}

	org, err := s.orgRepo.FindByID(*orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserOrganizationNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}
	if role == models.RoleDepartment && org.Type != models.OrganizationDepartment {
		return ErrOrganizationTypeMismatch
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hash), nil
}
