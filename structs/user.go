package structs

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SocialLinks holds optional social profile URLs.
type SocialLinks struct {
	Twitter  string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	GitHub   string `bson:"github,omitempty" json:"github,omitempty"`
	Website  string `bson:"website,omitempty" json:"website,omitempty"`
}

// UserProfile holds extended, user-editable profile fields.
type UserProfile struct {
	Bio         string       `bson:"bio,omitempty" json:"bio,omitempty"`
	Location    string       `bson:"location,omitempty" json:"location,omitempty"`
	Company     string       `bson:"company,omitempty" json:"company,omitempty"`
	Position    string       `bson:"position,omitempty" json:"position,omitempty"`
	Skills      []string     `bson:"skills,omitempty" json:"skills,omitempty"`
	PhoneNumber string       `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	SocialLinks *SocialLinks `bson:"social_links,omitempty" json:"social_links,omitempty"`
}

// User represents an account document.
type User struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                   string             `bson:"name" json:"name"`
	Email                  string             `bson:"email" json:"email"`
	Password               string             `bson:"password" json:"-"`
	Avatar                 string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Profile                UserProfile        `bson:"profile,omitempty" json:"profile"`
	IsEmailVerified        bool               `bson:"is_email_verified" json:"is_email_verified"`
	EmailVerificationToken string             `bson:"email_verification_token,omitempty" json:"-"`
	EmailVerificationExp   *time.Time         `bson:"email_verification_exp,omitempty" json:"-"`
	ResetPasswordToken     string             `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExp       *time.Time         `bson:"reset_password_exp,omitempty" json:"-"`
	LastLogin              *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	IsActive               bool               `bson:"is_active" json:"is_active"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}

// RegisterBody represents the registration payload.
type RegisterBody struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginBody represents the login payload.
type LoginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileBody represents the profile update payload.
// Nil pointers leave the stored value untouched.
type UpdateProfileBody struct {
	Name    string       `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar  *string      `json:"avatar,omitempty"`
	Profile *UserProfile `json:"profile,omitempty"`
}

// ChangePasswordBody represents the password change payload.
type ChangePasswordBody struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ForgotPasswordBody represents the password reset request payload.
type ForgotPasswordBody struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerificationBody represents the verification resend payload.
type ResendVerificationBody struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordBody represents the password reset payload. The token
// travels in the URL.
type ResetPasswordBody struct {
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse is returned from register and login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
