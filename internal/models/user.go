package models

import "fmt"

// DefaultOffices are the office labels offered by the registration form.
var DefaultOffices = []string{"Ofis 1", "Ofis 2", "Ofis 3"}

// OfficeLabel turns an office number into its label, e.g. 2 -> "Ofis 2".
func OfficeLabel(n int) string {
	return fmt.Sprintf("Ofis %d", n)
}

// User is a staff profile. Its ID equals the credential ID issued at registration.
type User struct {
	ID     int64  `json:"id" gorm:"primary_key;auto_increment:false"`
	Name   string `json:"name" gorm:"not null"`
	Office string `json:"office" gorm:"index;not null"`
}

// TableName sets the table name for User
func (User) TableName() string {
	return "profiles"
}

// Credential holds the login name and bcrypt hash for a user.
// Handlers never return it to API clients.
type Credential struct {
	ID           int64  `json:"id" gorm:"primary_key"`
	Login        string `json:"login" gorm:"unique_index;not null"`
	PasswordHash string `json:"passwordHash" gorm:"not null"`
}

// TableName sets the table name for Credential
func (Credential) TableName() string {
	return "credentials"
}
