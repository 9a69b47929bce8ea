package awsclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/example/mqmon/internal/ports/secondary"
)

var notFoundCodes = map[string]bool{
	"ResourceNotFound": true,
	"NoSuchKey":        true,
	"NoSuchBucket":     true,
	"NotFound":         true,
}

var transientCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"ThrottledException":                     true,
	"RequestThrottled":                       true,
	"RequestThrottledException":              true,
	"TooManyRequestsException":               true,
	"RequestLimitExceeded":                   true,
	"ProvisionedThroughputExceededException": true,
	"SlowDown":                               true,
	"ServiceUnavailable":                     true,
	"InternalFailure":                        true,
}

// Translate wraps err for the operation op on name, mapping absent
// resources to secondary.ErrNotFound and throttling to secondary.ErrTransient.
func Translate(op, name string, err error) error {
	if err == nil {
		return nil
	}
	subject := op
	if name != "" {
		subject = op + " " + name
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		code := ae.ErrorCode()
		switch {
		case notFoundCodes[code], isMissingValidation(code, ae.ErrorMessage()):
			return fmt.Errorf("%s: %w: %w", subject, secondary.ErrNotFound, err)
		case transientCodes[code]:
			return fmt.Errorf("%s: %w: %w", subject, secondary.ErrTransient, err)
		}
	}
	return fmt.Errorf("failed to %s: %w", subject, err)
}

// The control plane reports some missing resources, endpoints among them,
// as validation errors.
func isMissingValidation(code, message string) bool {
	return code == "ValidationException" && strings.Contains(message, "Could not find")
}
