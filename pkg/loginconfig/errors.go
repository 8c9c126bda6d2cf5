package loginconfig

import "errors"

var (
	// ErrLoginConfigurationNotFound is returned when no SSO configuration is persisted
	ErrLoginConfigurationNotFound = errors.New("login configuration not found")
)
