// Package apperr holds the one error shape shared by every service:
// a client input violation. Domain-specific failures live as sentinels
// in their own packages.
package apperr

import "fmt"

type Validation struct {
	Msg string
}

func (e *Validation) Error() string { return "validation: " + e.Msg }

func Validationf(format string, args ...any) error {
	return &Validation{Msg: fmt.Sprintf(format, args...)}
}
