package override

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseScope parses the scope grammar:
//
//	"<type>: <limit>"
//	"<type>: <original> -> <limit>"
//
// e.g. "max_highs: 10" or "max_highs: 5 -> 10". Any other shape fails with
// ErrInvalidScope.
func ParseScope(s string) (Scope, error) {
	head, tail, ok := strings.Cut(s, ":")
	if !ok {
		return Scope{}, fmt.Errorf("%w: %q (missing ':')", ErrInvalidScope, s)
	}
	scopeType := strings.TrimSpace(head)
	if scopeType == "" {
		return Scope{}, fmt.Errorf("%w: %q (empty scope type)", ErrInvalidScope, s)
	}

	tail = strings.TrimSpace(tail)
	if before, after, found := strings.Cut(tail, "->"); found {
		orig, err := strconv.Atoi(strings.TrimSpace(before))
		if err != nil {
			return Scope{}, fmt.Errorf("%w: %q (original limit %q)", ErrInvalidScope, s, strings.TrimSpace(before))
		}
		limit, err := strconv.Atoi(strings.TrimSpace(after))
		if err != nil {
			return Scope{}, fmt.Errorf("%w: %q (limit %q)", ErrInvalidScope, s, strings.TrimSpace(after))
		}
		return Scope{Type: scopeType, Limit: limit, OriginalLimit: orig}, nil
	}

	limit, err := strconv.Atoi(tail)
	if err != nil {
		return Scope{}, fmt.Errorf("%w: %q (limit %q)", ErrInvalidScope, s, tail)
	}
	return Scope{Type: scopeType, Limit: limit}, nil
}

// String renders the scope back into its grammar form.
func (sc Scope) String() string {
	if sc.OriginalLimit != 0 {
		return fmt.Sprintf("%s: %d -> %d", sc.Type, sc.OriginalLimit, sc.Limit)
	}
	return fmt.Sprintf("%s: %d", sc.Type, sc.Limit)
}
