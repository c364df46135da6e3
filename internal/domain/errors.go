package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrCampaignRunning       = errors.New("campaign run already in progress")
	ErrCampaignPaused        = errors.New("campaign paused")
	ErrArtifactsExpired      = errors.New("stage artifacts expired")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
