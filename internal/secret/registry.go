// Package secret implements the process-wide SecretRegistry: a set of
// sensitive strings masked out of any text before it reaches a persistent
// sink. It generalizes orc's dispatch.BuildEnv, which strips a fixed
// CLAUDECODE* prefix from the child environment — the one place in the
// teacher that already treats certain strings as unfit to leak. Kite makes
// that idea a registry of arbitrary values instead of a fixed prefix list.
package secret

import (
	"encoding/base64"
	"net/url"
	"strings"
	"sync"
)

// Registry is a process-wide, concurrency-safe set of sensitive strings.
// The zero value is ready to use.
type Registry struct {
	mu    sync.RWMutex
	byLen []string // registered values (and derived encodings), longest first
	hints map[string]string
}

// Register adds value to the registry under hint (used for masked output
// when showHints is requested). Registering also derives and registers the
// URL-encoded and base64-encoded forms of value, since these commonly
// appear embedded in headers and URLs. Empty strings are a no-op.
// Registration is idempotent.
func (r *Registry) Register(value, hint string) {
	if value == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hints == nil {
		r.hints = make(map[string]string)
	}
	r.add(value, hint)
	r.add(url.QueryEscape(value), hint)
	r.add(base64.StdEncoding.EncodeToString([]byte(value)), hint)
}

// add registers v under hint if not already present. Must be called with
// r.mu held.
func (r *Registry) add(v, hint string) {
	if v == "" {
		return
	}
	if _, ok := r.hints[v]; ok {
		return
	}
	r.hints[v] = hint
	r.byLen = append(r.byLen, v)
	// Longest-first so overlapping registrations (e.g. a secret that is a
	// substring of another registered secret) mask the longer match first.
	sortByLenDesc(r.byLen)
}

func sortByLenDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j-1]) < len(s[j]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Mask returns text with every registered value substring-replaced by
// "***", or "[<hint>:***]" when showHints is true. Replacement repeats
// until no registered value remains in the result, so overlapping
// registrations are fully scrubbed. Mask is safe to call concurrently with
// Register.
func (r *Registry) Mask(text string, showHints bool) string {
	r.mu.RLock()
	values := append([]string(nil), r.byLen...)
	hints := make(map[string]string, len(r.hints))
	for k, v := range r.hints {
		hints[k] = v
	}
	r.mu.RUnlock()

	if len(values) == 0 {
		return text
	}

	for {
		replaced := false
		for _, v := range values {
			if !strings.Contains(text, v) {
				continue
			}
			mask := "***"
			if showHints {
				hint := hints[v]
				if hint == "" {
					hint = "secret"
				}
				mask = "[" + hint + ":***]"
			}
			text = strings.ReplaceAll(text, v, mask)
			replaced = true
		}
		if !replaced {
			break
		}
	}
	return text
}

// Clear empties the registry. Used only by tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLen = nil
	r.hints = nil
}

// Len reports the number of distinct registered value forms (value +
// derived encodings), for diagnostics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byLen)
}
