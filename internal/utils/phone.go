package utils

import "strings"

// NormalizePhone strips everything but digits from a phone number. Member
// lookups match on the digits-only form.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidPhone reports whether the number has a plausible US digit count.
func IsValidPhone(phone string) bool {
	cleaned := NormalizePhone(phone)
	return len(cleaned) == 10 || (len(cleaned) == 11 && strings.HasPrefix(cleaned, "1"))
}

// IsValidEmail performs a cheap shape check; real validation is the loyalty
// backend's problem.
func IsValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
