package dto

import (
	"time"

	"github.com/reportdesk/report-portal/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID             uint64              `json:"id"`
	Username       string              `json:"username"`
	Role           models.UserRole     `json:"role"`
	OrganizationID *uint64             `json:"organization_id"`
	Organization   *OrganizationRefDTO `json:"organization,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users []UserDTO `json:"users"`
	Pagination
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		Username:       user.Username,
		Role:           user.Role,
		OrganizationID: user.OrganizationID,
		Organization:   ToOrganizationRefDTO(user.Organization),
		CreatedAt:      user.CreatedAt,
	}
}

// ToUserListResponse converts a page of users to UserListResponse
func ToUserListResponse(users []models.User, page, pageSize int, totalCount int64) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return UserListResponse{
		Users:      items,
		Pagination: NewPagination(page, pageSize, totalCount),
	}
}
