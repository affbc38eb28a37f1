package domain

import "time"

// FCMToken is a Firebase Cloud Messaging device token registered by an admin.
// A token value belongs to at most one admin.
type FCMToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AdminID   uint      `json:"admin_id" gorm:"column:admin_id;index;not null"`
	Admin     *Admin    `json:"-" gorm:"foreignKey:AdminID;references:AdminID;constraint:OnDelete:CASCADE"`
	Token     string    `json:"-" gorm:"column:fcm_token;uniqueIndex;not null"` // Don't expose token in JSON
	CreatedAt time.Time `json:"created_at"`
}

func (FCMToken) TableName() string {
	return "fcm_tokens"
}
