package models

import "time"

// ResourceRequest is a customer question about resources or plans,
// answered by an administrator.
type ResourceRequest struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"column:user_id;not null;index" json:"user_id"`
	Question string `gorm:"column:question;type:text;not null" json:"question"`
	Answer   string `gorm:"column:answer;type:text" json:"answer"`
	Answered bool   `gorm:"column:answered;default:false" json:"answered"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ResourceRequest) TableName() string {
	return "resource_requests"
}
