package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role is the mutually exclusive role tag carried by every user.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleBusinessOwner Role = "business_owner"
	RoleStaff         Role = "staff"
	RoleClient        Role = "client"
)

// Known reports whether r is one of the four roles the frontend routes on.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleBusinessOwner, RoleStaff, RoleClient:
		return true
	}
	return false
}

// HasBusiness reports whether users with this role are associated with a business.
func (r Role) HasBusiness() bool {
	return r == RoleBusinessOwner || r == RoleStaff
}

// User is the authenticated actor as returned by the backend.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	BusinessID  *string  `json:"business_id,omitempty"`
	IsVerified  bool     `json:"is_verified"`
	AdminRole   string   `json:"admin_role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// UnmarshalJSON accepts id and business_id as JSON strings or numbers.
// Numeric ids are kept in their decimal form.
func (u *User) UnmarshalJSON(data []byte) error {
	type Alias User
	aux := struct {
		*Alias
		ID         json.RawMessage `json:"id"`
		BusinessID json.RawMessage `json:"business_id"`
	}{Alias: (*Alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, _, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	u.ID = id

	bid, ok, err := decodeID(aux.BusinessID)
	if err != nil {
		return fmt.Errorf("user business_id: %w", err)
	}
	u.BusinessID = nil
	if ok {
		u.BusinessID = &bid
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with the session.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.BusinessID != nil {
		id := *u.BusinessID
		c.BusinessID = &id
	}
	if u.Permissions != nil {
		c.Permissions = append([]string(nil), u.Permissions...)
	}
	return &c
}

// Business is the tenant a business owner or staff member belongs to.
type Business struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	AccentColor    string `json:"accent_color,omitempty"`
	ThemeMode      string `json:"theme_mode,omitempty"`
	IsVerified     bool   `json:"is_verified"`
	IsActive       bool   `json:"is_active"`
}

// UnmarshalJSON accepts id as a JSON string or number.
func (b *Business) UnmarshalJSON(data []byte) error {
	type Alias Business
	aux := struct {
		*Alias
		ID json.RawMessage `json:"id"`
	}{Alias: (*Alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, _, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("business id: %w", err)
	}
	b.ID = id
	return nil
}

// Clone returns a copy of b.
func (b *Business) Clone() *Business {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// ProfileUpdate is the partial user record sent to the profile endpoint.
// Nil fields are left untouched by the backend.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=2"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name       string `json:"name"                  validate:"required,min=2"`
	Email      string `json:"email"                 validate:"required,email"`
	Password   string `json:"password"              validate:"required,min=6"`
	Role       Role   `json:"role"                  validate:"required,oneof=business_owner staff client"`
	BusinessID string `json:"business_id,omitempty" validate:"required_if=Role staff"`
}

// decodeID reads an identifier that may be a JSON string or number. ok is
// false when the value is absent or null.
func decodeID(raw json.RawMessage) (id string, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false, fmt.Errorf("unsupported value %s", raw)
	}
	return n.String(), true, nil
}
