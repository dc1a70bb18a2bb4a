package users

import "strings"

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration returns the problems with a sign-up form, in the
// order they are shown to the user. An empty result means the form is valid.
func ValidateRegistration(email, password, confirm, name string) []string {
	var errs []string
	if email == "" || !strings.Contains(email, "@") {
		errs = append(errs, "Please enter a valid email address.")
	}
	if len(password) < MinPasswordLength {
		errs = append(errs, "Password must be at least 6 characters long.")
	}
	if password != confirm {
		errs = append(errs, "Passwords do not match.")
	}
	if strings.TrimSpace(name) == "" {
		errs = append(errs, "Please enter your name.")
	}
	return errs
}
