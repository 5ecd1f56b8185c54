package platform

import (
	"context"
	"errors"
	"os"
	"strings"
)

var ErrNoLocale = errors.New("locale unavailable")

// lookupEnv is a test seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

// EnvLocale reads the POSIX locale variables, or returns Override when set.
type EnvLocale struct {
	Override string
}

// Locale returns a tag such as "en_GB". Encoding and modifier suffixes are
// dropped. The "C" and "POSIX" locales count as unavailable.
func (l EnvLocale) Locale(context.Context) (string, error) {
	if l.Override != "" {
		return normalizeLocale(l.Override), nil
	}
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v, ok := lookupEnv(name)
		if !ok {
			continue
		}
		v = normalizeLocale(v)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		return v, nil
	}
	return "", ErrNoLocale
}

func normalizeLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
