// internal/core/domain/counterparty.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ShippingMethod represents the courier preference of a customer
type ShippingMethod string

const (
	ShippingStarken     ShippingMethod = "starken"
	ShippingChilexpress ShippingMethod = "chilexpress"
	ShippingBluexpress  ShippingMethod = "bluexpress"
	ShippingPickup      ShippingMethod = "retiro"
	ShippingBranch      ShippingMethod = "sucursal"
)

// Counterparty is the customer on a sale or the provider on a purchase.
// Upserted keyed by RUT whenever a document naming it is finalized.
type Counterparty struct {
	ID           uuid.UUID      `json:"id"`
	RUT          string         `json:"rut"`
	IsCompany    bool           `json:"is_company"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	BusinessName string         `json:"business_name,omitempty"`
	BusinessGiro string         `json:"business_giro,omitempty"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Address      string         `json:"address,omitempty"`
	Commune      string         `json:"commune,omitempty"`
	Region       string         `json:"region,omitempty"`
	Shipping     ShippingMethod `json:"shipping_method,omitempty"`
	BranchName   string         `json:"branch_name,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// DisplayName is the business name for companies, else first+last name.
func (c *Counterparty) DisplayName() string {
	if c.IsCompany {
		return c.BusinessName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Validate enforces the party gate of the order-entry flow: a validated
// RUT, a name, contact fields and a deliverable address.
func (c *Counterparty) Validate() error {
	if !ValidateRUT(c.RUT) {
		return NewValidationError("rut", "RUT check digit is invalid")
	}
	if c.IsCompany {
		if c.BusinessName == "" {
			return NewValidationError("business_name", "business name is required")
		}
	} else if c.FirstName == "" || c.LastName == "" {
		return NewValidationError("name", "first and last name are required")
	}
	if c.Email == "" {
		return NewValidationError("email", "email is required")
	}
	if c.Phone == "" {
		return NewValidationError("phone", "phone is required")
	}
	if c.Address == "" {
		return NewValidationError("address", "address is required")
	}
	if c.Region == "" {
		return NewValidationError("region", "region is required")
	}
	return nil
}

// PrepareForStorage normalizes the RUT and stamps ids and timestamps.
func (c *Counterparty) PrepareForStorage() {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.RUT = FormatRUT(c.RUT)

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if c.Shipping == "" {
		c.Shipping = ShippingPickup
	}
}
