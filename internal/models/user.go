package models

import (
	"encoding/json"
	"time"
)

// UserType represents the type of user
type UserType int

const (
	UserTypeCustomer UserType = 1
	UserTypeAdmin    UserType = 2
)

// MarshalJSON converts UserType to string for JSON
func (ut UserType) MarshalJSON() ([]byte, error) {
	var s string
	switch ut {
	case UserTypeCustomer:
		s = "customer"
	case UserTypeAdmin:
		s = "admin"
	default:
		s = "unknown"
	}
	return json.Marshal(s)
}

// UnmarshalJSON converts string back to UserType for JSON parsing
func (ut *UserType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*ut = UserType(i)
		return nil
	}
	switch s {
	case "admin":
		*ut = UserTypeAdmin
	default:
		*ut = UserTypeCustomer
	}
	return nil
}

// User represents a system user (administrator or customer)
type User struct {
	ID       uint     `gorm:"column:id;primaryKey" json:"id"`
	Username string   `gorm:"column:username;uniqueIndex;size:100;not null" json:"username"`
	Password string   `gorm:"column:password;size:255;not null" json:"-"`
	Email    string   `gorm:"column:email;size:255" json:"email,omitempty"`
	UserType UserType `gorm:"column:user_type;not null;default:1" json:"user_type"`
	IsActive bool     `gorm:"column:is_active;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}
