package admin

import "errors"

var (
	ErrInvalidStatus     = errors.New("admin: unknown lead status")
	ErrInvalidRole       = errors.New("admin: unknown user role")
	ErrInvalidSettingKey = errors.New("admin: unknown setting key")
	ErrLLMDisabled       = errors.New("admin: narrative generation is not configured")
	ErrNoIDs             = errors.New("admin: no lead ids given")
)
