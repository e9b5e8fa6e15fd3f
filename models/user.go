package models

import "time"

type UserType string

const (
	UserTypeFarmer   UserType = "farmer"
	UserTypeConsumer UserType = "consumer"
)

type User struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string   `gorm:"not null" json:"username"`
	Email        string   `gorm:"unique;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	UserType     UserType `gorm:"type:VARCHAR(10);default:'consumer';index" json:"user_type"`
	PhoneNumber  string   `json:"phone_number"`
	Location     string   `gorm:"index" json:"location"`
	IsVerified   bool     `gorm:"default:false" json:"is_verified"`

	CartItems []CartItem `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Orders    []Order    `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
