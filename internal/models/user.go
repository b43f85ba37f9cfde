package models

import (
	"crypto/subtle"
	"time"
)

const DefaultLanguage = "en-EN"

type User struct {
	BaseModel

	Username       string  `gorm:"size:64;uniqueIndex;not null"`
	Email          string  `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash   string  `gorm:"size:256"`
	Language       string  `gorm:"size:10;default:en-EN"`
	ProfilePicture *string `gorm:"size:120"`

	EmailVerified                bool    `gorm:"default:false"`
	EmailVerificationToken       *string `gorm:"size:256;index"`
	EmailVerificationTokenExpiry *time.Time

	ResetToken       *string `gorm:"size:256;index"`
	ResetTokenExpiry *time.Time

	LastLogin           *time.Time
	FailedLoginAttempts int `gorm:"default:0"`
	AccountLockedUntil  *time.Time

	// Relationships
	OwnedEvents         []Event `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ParticipatingEvents []Event `gorm:"many2many:event_participants;constraint:OnDelete:CASCADE"`
	Tasks               []Task  `gorm:"many2many:task_assignments;constraint:OnDelete:CASCADE"`
	Friends             []User  `gorm:"many2many:friendships;joinForeignKey:UserID;joinReferences:FriendID;constraint:OnDelete:CASCADE"`
}

const (
	MaxFailedLoginAttempts    = 5
	AccountLockoutDuration    = 15 * time.Minute
	ResetTokenTTL             = time.Hour
	EmailVerificationTokenTTL = 24 * time.Hour
)

func (u *User) IsAccountLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// IncrementFailedLogin counts a bad password and locks the account once the limit is hit.
func (u *User) IncrementFailedLogin(now time.Time) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		until := now.Add(AccountLockoutDuration)
		u.AccountLockedUntil = &until
	}
}

// AttemptsRemaining is how many bad passwords are left before the lock.
func (u *User) AttemptsRemaining() int {
	remaining := MaxFailedLoginAttempts - u.FailedLoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetFailedLoginAttempts runs on a successful login.
func (u *User) ResetFailedLoginAttempts(now time.Time) {
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
	u.LastLogin = &now
}

func (u *User) SetResetToken(token string, now time.Time) {
	expiry := now.Add(ResetTokenTTL)
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
}

func (u *User) VerifyResetToken(token string, now time.Time) bool {
	return tokenValid(u.ResetToken, u.ResetTokenExpiry, token, now)
}

func (u *User) ClearResetToken() {
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
}

func (u *User) SetEmailVerificationToken(token string, now time.Time) {
	expiry := now.Add(EmailVerificationTokenTTL)
	u.EmailVerificationToken = &token
	u.EmailVerificationTokenExpiry = &expiry
}

func (u *User) VerifyEmailVerificationToken(token string, now time.Time) bool {
	return tokenValid(u.EmailVerificationToken, u.EmailVerificationTokenExpiry, token, now)
}

// VerifyEmail marks the address as confirmed and burns the token.
func (u *User) VerifyEmail() {
	u.EmailVerified = true
	u.EmailVerificationToken = nil
	u.EmailVerificationTokenExpiry = nil
}

func tokenValid(stored *string, expiry *time.Time, token string, now time.Time) bool {
	if stored == nil || expiry == nil || token == "" {
		return false
	}
	if now.After(*expiry) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(token)) == 1
}
