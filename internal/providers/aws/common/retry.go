package common

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
)

// RetryOptions tunes the SDK standard retryer used by every client built
// from a loaded profile. Zero fields keep the SDK defaults.
type RetryOptions struct {
	MaxAttempts int
	MaxBackoff  time.Duration
}

// DefaultRetryOptions returns the retry settings used when config does not
// override them.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxAttempts: 5, MaxBackoff: 20 * time.Second}
}

// Retryer returns a constructor for a standard retryer with o applied. The
// standard retryer backs off on throttling and transient 5xx errors.
func (o RetryOptions) Retryer() func() aws.Retryer {
	return func() aws.Retryer {
		return retry.NewStandard(func(so *retry.StandardOptions) {
			if o.MaxAttempts > 0 {
				so.MaxAttempts = o.MaxAttempts
			}
			if o.MaxBackoff > 0 {
				so.MaxBackoff = o.MaxBackoff
			}
		})
	}
}
