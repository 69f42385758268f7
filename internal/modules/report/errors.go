package report

import "errors"

var (
	ErrValidation   = errors.New("report: validation failed")
	ErrJobNotFound  = errors.New("report: job not found")
	ErrUnknownShape = errors.New("report: unrecognized result payload shape")
)
