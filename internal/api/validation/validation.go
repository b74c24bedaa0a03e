package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// South African VAT numbers are ten digits and start with 4.
	vatNumberRegex = regexp.MustCompile(`^4\d{9}$`)

	branchCodeRegex    = regexp.MustCompile(`^\d{6}$`)
	accountNumberRegex = regexp.MustCompile(`^\d{6,16}$`)
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

func IsValidVATNumber(vat string) bool {
	return vatNumberRegex.MatchString(stripSpaces(vat))
}

func IsValidBranchCode(code string) bool {
	return branchCodeRegex.MatchString(stripSpaces(code))
}

func IsValidAccountNumber(number string) bool {
	return accountNumberRegex.MatchString(stripSpaces(number))
}

// NormalizeDigits removes the spaces and dashes people type into bank details.
func NormalizeDigits(s string) string {
	return stripSpaces(s)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

// IsValidPassword checks password strength for new accounts
func IsValidPassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return false, "Password must be at most 72 bytes"
	}

	var hasLetter, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasLetter || !hasNumber {
		return false, "Password must contain letters and numbers"
	}

	return true, ""
}

// ValidateBankingDetails returns field errors keyed by JSON field name.
func ValidateBankingDetails(bankName, branchCode, accountNumber string) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(bankName) == "" {
		errors["bank_name"] = "Bank name is required"
	} else if utf8.RuneCountInString(bankName) > 100 {
		errors["bank_name"] = "Bank name must be at most 100 characters"
	}
	if !IsValidBranchCode(branchCode) {
		errors["branch_code"] = "Branch code must be 6 digits"
	}
	if !IsValidAccountNumber(accountNumber) {
		errors["account_number"] = "Account number must be 6 to 16 digits"
	}

	return errors
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TruncateString truncates s to at most maxLen runes
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
