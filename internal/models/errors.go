package models

import "errors"

// Ошибки уровня домена. API переводит их в HTTP-статусы,
// сервисы сравнивают через errors.Is.
var (
	ErrNotFound            = errors.New("not_found")
	ErrInvalidInput        = errors.New("invalid_input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrLocked              = errors.New("locked")
	ErrRateLimited         = errors.New("rate_limited")
	ErrGenerationExhausted = errors.New("generation_exhausted")
	ErrInvalidStageSet     = errors.New("invalid_stage_set")
	ErrUploadRejected      = errors.New("upload_rejected")
	ErrNoFiles             = errors.New("no_files")
)
