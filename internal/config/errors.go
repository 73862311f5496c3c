package config

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid swing config")
	ErrLoadConfig    = errors.New("cannot load swing config")
	// ErrInvalidRubric marks a configured rubric the scorer cannot use. It
	// matches ErrInvalidConfig as well.
	ErrInvalidRubric = fmt.Errorf("%w: rubric", ErrInvalidConfig)
)
