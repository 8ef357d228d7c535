package entity

import "errors"

var (
	// Item errors
	ErrItemNotFound     = errors.New("item not found")
	ErrInvalidStatus    = errors.New("invalid item status")
	ErrInvalidDayOffset = errors.New("invalid notification day offset")

	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidEmail      = errors.New("invalid email format")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)
