package envfile

import (
	"os"
	"strings"
)

// ProcessEnv snapshots the live process environment as a map. This is
// the one impure read the rule logic depends on; everything downstream
// takes explicit maps.
func ProcessEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.Index(kv, "="); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
