package app

import "errors"

var (
	// ErrInvalidAmount indicates an intake amount outside (0, MaxIntakeML].
	ErrInvalidAmount = errors.New("amountMl must be between 1 and 5000")
	// ErrInvalidDay indicates a malformed calendar day.
	ErrInvalidDay = errors.New("day must be formatted as YYYY-MM-DD")
	// ErrInvalidGoal indicates a daily goal outside [MinGoalML, MaxGoalML].
	ErrInvalidGoal = errors.New("dailyGoalMl must be between 100 and 20000")
	// ErrInvalidProfile indicates an unusable profile name.
	ErrInvalidProfile = errors.New("name must be at most 64 characters")
	// ErrInvalidImage indicates an unsupported or oversized profile image.
	ErrInvalidImage = errors.New("image must be a jpeg, png, gif or webp of at most 2 MiB")
	// ErrImageNotFound indicates the user has no cached profile image.
	ErrImageNotFound = errors.New("profile image not found")
	// ErrRemoteUnavailable indicates the remote store failed and no local fallback exists.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)
