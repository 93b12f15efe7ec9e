package cli

import (
	"crypto/rand"
	"encoding/hex"

	"finanzas/internal/config"
)

func randomSecret() (string, error) {
	buf := make([]byte, config.MinSessionSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
