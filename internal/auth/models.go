package auth

import "time"

type User struct {
	ID            string `gorm:"primaryKey" json:"id"`
	Username      string `gorm:"not null;uniqueIndex" json:"username"`
	PasswordHash  string `gorm:"column:password;not null" json:"-"`
	Email         string `gorm:"not null;uniqueIndex" json:"email"`
	EmailVerified bool   `gorm:"not null;default:false" json:"emailVerified"`
}

type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	// Fresh is set when the session was issued or rotated by the current call.
	Fresh bool `gorm:"-" json:"fresh"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// EmailVerification is a pending email confirmation. ID is the secret
// carried by the confirmation link.
type EmailVerification struct {
	ID        string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;index" json:"-"`
	Email     string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"-"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string              { return "app_auth.users" }
func (Session) TableName() string           { return "app_auth.sessions" }
func (EmailVerification) TableName() string { return "app_auth.email_verifications" }
