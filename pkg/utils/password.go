package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password for the HTTP surface. The
// data layer itself treats the password column as opaque.
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
