package httpserver

import (
	"time"

	"github.com/Skotchmaster/contacts_api/internal/models"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,excludes=@"`
	Email    string `json:"email"    validate:"required,email,max=150"`
	// bcrypt only looks at the first 72 bytes
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=6,max=72"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Avatar    *string     `json:"avatar"`
	Role      models.Role `json:"role"`
	Confirmed bool        `json:"confirmed"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		Confirmed: u.Confirmed,
	}
}

type contactRequest struct {
	FirstName      string  `json:"first_name"      validate:"required,min=2,max=50"`
	LastName       string  `json:"last_name"       validate:"required,min=2,max=50"`
	Email          string  `json:"email"           validate:"required,email,max=100"`
	PhoneNumber    string  `json:"phone_number"    validate:"required,number,min=6,max=20"`
	Birthday       string  `json:"birthday"        validate:"required,datetime=2006-01-02"`
	AdditionalData *string `json:"additional_data" validate:"omitempty,max=150"`
}

type birthdaysRequest struct {
	Days *int `json:"days" validate:"required"`
}

type contactResponse struct {
	ID             uint       `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	PhoneNumber    string     `json:"phone_number"`
	Birthday       string     `json:"birthday"`
	AdditionalData *string    `json:"additional_data"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

func toContactResponse(c *models.Contact) contactResponse {
	out := contactResponse{
		ID:             c.ID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
		Birthday:       c.Birthday.Format(dateLayout),
		AdditionalData: c.AdditionalData,
		CreatedAt:      c.CreatedAt,
	}
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

func toContactResponses(items []models.Contact) []contactResponse {
	out := make([]contactResponse, 0, len(items))
	for i := range items {
		out = append(out, toContactResponse(&items[i]))
	}
	return out
}
