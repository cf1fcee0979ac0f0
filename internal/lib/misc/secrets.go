package misc

import (
	"os"
	"strings"
)

// GetSecret returns the value of key from the environment, falling back to a <key>_FILE variable
// naming a file holding the value (ie: a mounted container secret).
func GetSecret(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if file := os.Getenv(key + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}
