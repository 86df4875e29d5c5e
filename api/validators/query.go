package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/forcedotcom/commerce-vercel/pkg/errors"
)

// MaxRecordIDLen bounds platform record ids accepted from the browser.
const MaxRecordIDLen = 64

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryRecordID reads an optional record id such as a category id.
// An absent parameter yields "".
func ParseQueryRecordID(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	if !IsRecordID(raw) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid record id").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}

// IsRecordID reports whether id looks like a platform record id. Ids are
// interpolated into vendor URL paths, so only ASCII letters and digits pass.
func IsRecordID(id string) bool {
	if id == "" || len(id) > MaxRecordIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
