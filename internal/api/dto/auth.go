package dto

import (
	"strings"
	"time"

	"github.com/sarelsmotors/garage/internal/database/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type UserDTO struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Role           string     `json:"role"`
	OrganizationID string     `json:"organization_id"`
	OrgName        string     `json:"org_name,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

func NewUserDTO(u *models.User) UserDTO {
	out := UserDTO{
		ID:             u.ID.String(),
		Email:          u.Email,
		Name:           u.Name,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID.String(),
		LastLoginAt:    u.LastLoginAt,
	}
	if u.Organization != nil {
		out.OrgName = u.Organization.Name
	}
	return out
}
