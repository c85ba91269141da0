package catalog

import (
	"fmt"
	"strings"
)

// Code identifies a pipeline state. A code is a three-digit main-line stage
// ("000", "210") or the error counterpart of one ("100E"). The error
// relationship is carried explicitly instead of by string suffix convention;
// the string form exists only at the persistence boundary.
type Code struct {
	Base string
	Err  bool
}

// ParseCode parses the stored string form of a code.
func ParseCode(s string) (Code, error) {
	base := s
	isErr := false
	if strings.HasSuffix(s, "E") {
		base = strings.TrimSuffix(s, "E")
		isErr = true
	}
	if len(base) != 3 {
		return Code{}, fmt.Errorf("malformed status code %q", s)
	}
	for _, r := range base {
		if r < '0' || r > '9' {
			return Code{}, fmt.Errorf("malformed status code %q", s)
		}
	}
	return Code{Base: base, Err: isErr}, nil
}

// MustCode parses s and panics on malformed input. For static catalog values
// and tests only.
func MustCode(s string) Code {
	c, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String renders the stored form of the code.
func (c Code) String() string {
	if c.Err {
		return c.Base + "E"
	}
	return c.Base
}

// IsError reports whether the code is an error variant.
func (c Code) IsError() bool {
	return c.Err
}

// ErrorVariant returns the paired error code of a main-line code. Calling it
// on an error variant returns the code unchanged.
func (c Code) ErrorVariant() Code {
	return Code{Base: c.Base, Err: true}
}

// MainLine returns the main-line code an error variant pairs with.
func (c Code) MainLine() Code {
	return Code{Base: c.Base}
}
