package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

func testCustomer() *domain.Counterparty {
	return &domain.Counterparty{
		RUT:       "12345678-5",
		FirstName: "Italo",
		LastName:  "Tavonatti",
		Email:     "italo@example.cl",
		Phone:     "+56912345678",
		Address:   "Av. Providencia 1234",
		Commune:   "Providencia",
		Region:    "Metropolitana de Santiago",
	}
}

func TestCounterparty_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.Counterparty)
		wantError bool
		errorMsg  string
	}{
		{
			name:   "valid_person",
			mutate: func(c *domain.Counterparty) {},
		},
		{
			name: "valid_company",
			mutate: func(c *domain.Counterparty) {
				c.IsCompany = true
				c.FirstName = ""
				c.LastName = ""
				c.BusinessName = "Fungus Mycelium Ltda"
			},
		},
		{
			name:      "invalid_rut",
			mutate:    func(c *domain.Counterparty) { c.RUT = "12345678-9" },
			wantError: true,
			errorMsg:  "RUT check digit is invalid",
		},
		{
			name:      "person_missing_last_name",
			mutate:    func(c *domain.Counterparty) { c.LastName = "" },
			wantError: true,
			errorMsg:  "first and last name are required",
		},
		{
			name: "company_missing_business_name",
			mutate: func(c *domain.Counterparty) {
				c.IsCompany = true
				c.BusinessName = ""
			},
			wantError: true,
			errorMsg:  "business name is required",
		},
		{
			name:      "missing_email",
			mutate:    func(c *domain.Counterparty) { c.Email = "" },
			wantError: true,
			errorMsg:  "email is required",
		},
		{
			name:      "missing_phone",
			mutate:    func(c *domain.Counterparty) { c.Phone = "" },
			wantError: true,
			errorMsg:  "phone is required",
		},
		{
			name:      "missing_address",
			mutate:    func(c *domain.Counterparty) { c.Address = "" },
			wantError: true,
			errorMsg:  "address is required",
		},
		{
			name:      "missing_region",
			mutate:    func(c *domain.Counterparty) { c.Region = "" },
			wantError: true,
			errorMsg:  "region is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCustomer()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				var verr *domain.ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCounterparty_DisplayName(t *testing.T) {
	c := testCustomer()
	assert.Equal(t, "Italo Tavonatti", c.DisplayName())

	c.IsCompany = true
	c.BusinessName = "Fungus Mycelium Ltda"
	assert.Equal(t, "Fungus Mycelium Ltda", c.DisplayName())
}

func TestCounterparty_PrepareForStorage(t *testing.T) {
	c := testCustomer()
	c.RUT = "12.345.678-5"
	c.PrepareForStorage()

	assert.Equal(t, "12345678-5", c.RUT)
	assert.Equal(t, domain.ShippingPickup, c.Shipping)
	assert.False(t, c.CreatedAt.IsZero())
	assert.False(t, c.UpdatedAt.IsZero())
}
