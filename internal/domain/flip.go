package domain

import (
	"database/sql/driver"
	"encoding"
	"fmt"
)

// FlipMode selects which side of a card is shown first during revision.
type FlipMode int

const (
	FlipFront FlipMode = iota // front first
	FlipBack                  // back first
	FlipBoth                  // coin flip per card
)

var flipNames = [...]string{FlipFront: "front", FlipBack: "back", FlipBoth: "both"}

var (
	_ fmt.Stringer             = FlipMode(0)
	_ encoding.TextMarshaler   = FlipMode(0)
	_ encoding.TextUnmarshaler = (*FlipMode)(nil)
	_ driver.Valuer            = FlipMode(0)
)

// ParseFlipMode converts a wire token into a FlipMode.
func ParseFlipMode(s string) (FlipMode, error) {
	for m, name := range flipNames {
		if name == s {
			return FlipMode(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFlipMode, s)
}

// IsValid reports whether m is one of the declared modes.
func (m FlipMode) IsValid() bool {
	return m >= FlipFront && m <= FlipBoth
}

func (m FlipMode) String() string {
	if m.IsValid() {
		return flipNames[m]
	}
	return fmt.Sprintf("FlipMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler, so JSON carries the token.
func (m FlipMode) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFlipMode, int(m))
	}
	return []byte(flipNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FlipMode) UnmarshalText(text []byte) error {
	v, err := ParseFlipMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value stores the mode as its token.
func (m FlipMode) Value() (driver.Value, error) {
	text, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan reads the token back from a TEXT column.
func (m *FlipMode) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return m.UnmarshalText([]byte(v))
	case []byte:
		return m.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidFlipMode, src)
	}
}
