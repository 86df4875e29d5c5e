package instance

import (
	"os"
	"strings"
)

// ID names the running process in logs. Platform dyno ids win over the host name.
func ID() string {
	for _, key := range []string{"DYNO", "VERCEL_REGION", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
