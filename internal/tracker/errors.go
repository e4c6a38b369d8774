package tracker

import "errors"

var (
	ErrValidation         = errors.New("invalid submission")
	ErrSubmissionRejected = errors.New("submission rejected")
	ErrJobNotFound        = errors.New("pending job not found")
	ErrNotAccepted        = errors.New("job not accepted by the backend")
	ErrNoSnapshot         = errors.New("current results could not be loaded")
)
