package transform

import "errors"

// ErrorKind classifies a session failure for the presentation layer.
type ErrorKind string

const (
	ErrorValidation ErrorKind = "validation"
	ErrorUpload     ErrorKind = "upload"
	ErrorInvocation ErrorKind = "invocation"
	ErrorExtraction ErrorKind = "extraction"
	ErrorUnexpected ErrorKind = "unexpected"
)

var (
	// ErrNoSource is returned when a transform is initiated without a
	// selected source asset.
	ErrNoSource = errors.New("transform: no source asset selected")
	// ErrInFlight is returned when a session already has a pipeline run
	// in flight.
	ErrInFlight = errors.New("transform: session already in progress")
	// ErrNotRetryable is returned when retry is requested outside the
	// failed phase.
	ErrNotRetryable = errors.New("transform: session is not in a failed state")
)

// User-facing messages. Kept fixed so the presentation layer can rely
// on them.
const (
	msgUploadFailed     = "upload failed, please try again"
	msgInvocationFailed = "the agent could not process this image"
	msgNoImage          = "no image was generated"
	msgUnexpected       = "something went wrong, please try again"

	progressUploading = "Uploading your image..."
	progressInvoking  = "Applying the brand style..."
)
