package db

import (
	"errors"
	"strings"
)

var errDBUnavailable = errors.New("db unavailable")

// enabledColumn maps a stored enabled value onto the nullable boolean column.
// Values that are neither booleans nor "true"/"false" strings become NULL.
func enabledColumn(value any) *bool {
	switch v := value.(type) {
	case bool:
		return &v
	case *bool:
		if v == nil {
			return nil
		}
		b := *v
		return &b
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			b := true
			return &b
		case "false":
			b := false
			return &b
		}
	}
	return nil
}

func copyString(in *string) *string {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}
