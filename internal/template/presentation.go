package template

import "fmt"

// DisplayName returns the label shown for v. Block height and time variables
// always use a fixed label; other variants use v.Name, which may be empty.
func DisplayName(v Variable) string {
	switch v.Type {
	case TypeCurrentBlockHeight:
		return "Current Block Height"
	case TypeCurrentBlockTime:
		return "Current Block Time"
	}
	return v.Name
}

// Icon returns the icon identifier for a variant.
func Icon(t VariableType) (string, error) {
	switch t {
	case TypeWalletData:
		return "⌸", nil
	case TypeAddressData:
		return "⌂", nil
	case TypeHDKey:
		return "⚿", nil
	case TypeKey:
		return "🔑", nil
	case TypeCurrentBlockHeight:
		return "▤", nil
	case TypeCurrentBlockTime:
		return "◷", nil
	}
	return "", unhandled(t)
}

// InitialDescription returns the description prefilled for a new variable of type t.
func InitialDescription(t VariableType) (string, error) {
	switch t {
	case TypeWalletData, TypeAddressData:
		return "", nil
	case TypeCurrentBlockHeight:
		return "", nil
	case TypeCurrentBlockTime:
		return "", nil
	case TypeHDKey:
		return "", nil
	case TypeKey:
		return "", nil
	}
	return "", unhandled(t)
}

func unhandled(t VariableType) error {
	return fmt.Errorf("%w: %q", ErrUnhandledVariant, string(t))
}
