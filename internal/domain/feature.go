package domain

// IsValidFeatureName returns true if s matches [a-z0-9_-]{1,64}.
func IsValidFeatureName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !isLower && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
