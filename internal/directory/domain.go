package directory

import "github.com/aegis-admin/aegis-admin/internal/session"

// User is the principal record managed by the admin screens. The backend
// mixes naming conventions (is_active next to postalCode), so the wire
// tags below mirror the payloads exactly rather than one convention.
type User struct {
	ID       int64    `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Age      int      `json:"age,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	City     string   `json:"city,omitempty"`
	IsActive bool     `json:"is_active,omitempty"`
	Token    string   `json:"token,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Address  *Address `json:"address,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
}

// Principal projects the user onto the session snapshot shape.
func (u User) Principal() session.Principal {
	return session.Principal{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Picture:  u.Picture,
		IsActive: u.IsActive,
	}
}

// Address is a postal address attached to a user.
type Address struct {
	ID         int64   `json:"id,omitempty"`
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Country    string  `json:"country"`
	PostalCode string  `json:"postalCode"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
	UserID     int64   `json:"userId,omitempty"`
}

// Profile carries the secondary profile fields of a user.
type Profile struct {
	ID       int64  `json:"id"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// Device is a registered user device.
type Device struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	IP              string `json:"ip"`
	OperatingSystem string `json:"operating_system"`
	User            *User  `json:"user,omitempty"`
}

// Password is a credential record in a user's password history.
type Password struct {
	ID           int64  `json:"id,omitempty"`
	UserID       int64  `json:"userId"`
	PasswordHash string `json:"passwordHash"`
	Content      string `json:"content,omitempty"`
	CreatedAt    string `json:"createdAt,omitempty"`
	IsActive     bool   `json:"isActive,omitempty"`
	StartAt      string `json:"startAt,omitempty"`
	EndAt        string `json:"endAt,omitempty"`
}

// SecurityQuestion is a question available for account recovery.
type SecurityQuestion struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Answer is a user's answer to a security question.
type Answer struct {
	ID                 int64             `json:"id,omitempty"`
	UserID             int64             `json:"userId"`
	SecurityQuestionID int64             `json:"securityQuestionId"`
	Content            string            `json:"content"`
	Question           *SecurityQuestion `json:"question,omitempty"`
}

// DigitalSignature holds a user's signature image reference.
type DigitalSignature struct {
	ID     int64  `json:"id,omitempty"`
	Photo  string `json:"photo"`
	UserID int64  `json:"user_id"`
	User   *User  `json:"user,omitempty"`
}

// SessionRecord is a server-side session row as exposed by the backend
// sessions resource. Distinct from the browser session this app keeps.
type SessionRecord struct {
	ID         string `json:"id,omitempty"`
	Token      string `json:"token"`
	Expiration string `json:"expiration"`
	FACode     string `json:"FACode,omitempty"`
	State      string `json:"state"`
	User       *User  `json:"user,omitempty"`
}
