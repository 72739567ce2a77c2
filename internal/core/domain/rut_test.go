package domain_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

func TestFormatRUT(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already_canonical", input: "12345678-5", want: "12345678-5"},
		{name: "no_hyphen", input: "123456785", want: "12345678-5"},
		{name: "dotted", input: "12.345.678-5", want: "12345678-5"},
		{name: "uppercase_k", input: "32345678K", want: "32345678-k"},
		{name: "lowercase_k_with_hyphen", input: "7775577-k", want: "7775577-k"},
		{name: "garbage_stripped", input: " 12a345b678--5 ", want: "12345678-5"},
		{name: "empty", input: "", want: ""},
		{name: "single_char", input: "5", want: "5"},
		{name: "single_char_after_clean", input: "--5--", want: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.FormatRUT(tt.input))
		})
	}
}

func TestFormatRUT_Idempotent(t *testing.T) {
	inputs := []string{"12345678-5", "123456785", "12.345.678-K", "77.692.324-9"}
	for _, in := range inputs {
		once := domain.FormatRUT(in)
		assert.Equal(t, once, domain.FormatRUT(once), "format must be idempotent for %q", in)
	}
}

func TestValidateRUT(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "known_valid", input: "12345678-5", want: true},
		{name: "known_valid_unhyphenated", input: "123456785", want: true},
		{name: "known_valid_dotted", input: "12.345.678-5", want: true},
		{name: "company_rut", input: "77.692.324-9", want: true},
		{name: "wrong_check_digit", input: "12345678-9", want: false},
		{name: "valid_with_k", input: "32345678-k", want: true},
		{name: "valid_with_uppercase_k", input: "32345678-K", want: true},
		{name: "too_short", input: "5", want: false},
		{name: "empty", input: "", want: false},
		{name: "only_letters", input: "abcdef", want: false},
		{name: "k_in_body", input: "12k45678-5", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ValidateRUT(tt.input))
		})
	}
}

// Every body has exactly one valid check character out of the eleven
// possibilities (0-9 and k).
func TestValidateRUT_SingleValidCheckDigit(t *testing.T) {
	bodies := []string{"12345678", "1", "999", "20881410", "77692324"}

	checkChars := make([]string, 0, 11)
	for d := 0; d <= 9; d++ {
		checkChars = append(checkChars, strconv.Itoa(d))
	}
	checkChars = append(checkChars, "k")

	for _, body := range bodies {
		valid := 0
		for _, dv := range checkChars {
			if domain.ValidateRUT(body + "-" + dv) {
				valid++
				assert.True(t, domain.ValidateRUT(domain.FormatRUT(body+dv)),
					"formatted form of %s%s must validate too", body, dv)
			}
		}
		assert.Equal(t, 1, valid, "body %s must have exactly one valid check digit", body)
	}
}
