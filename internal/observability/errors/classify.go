package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/target/ticketgate/internal/domain/model"
)

var sentinelClasses = []struct {
	err   error
	class string
}{
	{model.ErrConfigUnavailable, "config_unavailable"},
	{model.ErrPersistenceFailure, "persistence_failure"},
	{model.ErrNotifierFailure, "notifier_failure"},
	{model.ErrInvalidFilter, "invalid_filter"},
}

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// Dispatch sentinels win; otherwise it unwraps to the innermost concrete type and converts it to snake_case-ish.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, s := range sentinelClasses {
		if goerrors.Is(err, s.err) {
			return s.class
		}
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
