package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfigExists  = fmt.Errorf("configuration already exists")

	// Generation errors
	ErrGeneratorUnavailable = fmt.Errorf("generator unavailable")
	ErrGenerationFailed     = fmt.Errorf("generation failed")
	ErrJobNotFound          = fmt.Errorf("job not found")
	ErrJobNotCancelable     = fmt.Errorf("job cannot be canceled")
	ErrQueueFull            = fmt.Errorf("generation queue is full")
	ErrResultNotReady       = fmt.Errorf("result not ready")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Library and storage errors
	ErrSongNotFound      = fmt.Errorf("song not found")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")
	ErrReferenceNotFound = fmt.Errorf("reference track not found")
	ErrAudioMissing      = fmt.Errorf("audio file missing")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
