package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" bson:"_id" json:"id"`
	Firstname    string    `gorm:"type:varchar(100);not null" bson:"firstname" json:"firstname"`
	Middlename   string    `gorm:"type:varchar(100)" bson:"middlename" json:"middlename"`
	Lastname     string    `gorm:"type:varchar(100);not null" bson:"lastname" json:"lastname"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(100);not null" bson:"password_hash" json:"-"`
	Address      string    `gorm:"type:varchar(255)" bson:"address" json:"address"`
	Contact      string    `gorm:"type:varchar(50)" bson:"contact" json:"contact"`
	Role         string    `gorm:"type:varchar(20);default:'user'" bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity is the snapshot of a user that a session carries.
func (u *User) Identity() Identity {
	return Identity{
		Firstname:  u.Firstname,
		Middlename: u.Middlename,
		Lastname:   u.Lastname,
		Email:      u.Email,
		Address:    u.Address,
		Contact:    u.Contact,
		Role:       u.Role,
	}
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
