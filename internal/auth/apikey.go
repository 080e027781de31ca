package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey hashes a plaintext admin key for storage in configuration.
func HashAPIKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareAPIKey verifies a presented admin key against its stored hash.
func CompareAPIKey(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
