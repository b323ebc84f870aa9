package models

// Account and organization statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
