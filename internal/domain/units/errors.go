package units

import "errors"

// Conversion errors
var (
	ErrUnknownUnit           = errors.New("unknown unit")
	ErrIncompatibleUnitClass = errors.New("incompatible unit class")
	ErrNonConvertibleUnit    = errors.New("unit is not convertible")
)
