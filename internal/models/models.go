package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"size:150;uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"size:255;not null"                 json:"-"`
	Role         Role      `gorm:"size:16;not null;default:user"     json:"role"`
	Confirmed    bool      `gorm:"not null;default:false"            json:"confirmed"`
	Avatar       *string   `gorm:"size:255"                          json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Contact struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"                                json:"id"`
	FirstName      string    `gorm:"size:50;not null;uniqueIndex:unique_contact"      json:"first_name"`
	LastName       string    `gorm:"size:50;not null;uniqueIndex:unique_contact"      json:"last_name"`
	Email          string    `gorm:"size:100;not null;index"                                 json:"email"`
	PhoneNumber    string    `gorm:"size:20;not null"                                        json:"phone_number"`
	Birthday       time.Time `gorm:"type:date;not null"                                      json:"birthday"`
	AdditionalData *string   `gorm:"size:150"                                                json:"additional_data"`
	UserID         uint      `gorm:"not null;index;uniqueIndex:unique_contact"        json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
