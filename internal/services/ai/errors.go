package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError carries the provider-side detail of a failed model call.
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // quota exhaustion, as opposed to a passing rate limit
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError reports whether err is a passing rate-limit error.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError reports whether err means the account's quota ran out.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}
	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError pulls structured detail out of an SDK error. The SDK
// embeds the provider's JSON error body in the message, so this parses
// the first brace-delimited object it finds. Returns nil when the error
// carries no recognizable API detail.
func ExtractAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "429") {
		return nil
	}

	apiErr := &APIError{
		StatusCode: 429,
		Message:    errStr,
		Type:       "rate_limit_error",
	}
	if jsonStart := strings.Index(errStr, "{"); jsonStart != -1 {
		jsonStr := errStr[jsonStart:]
		if jsonEnd := strings.LastIndex(jsonStr, "}"); jsonEnd != -1 {
			var errorData struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			}
			if json.Unmarshal([]byte(jsonStr[:jsonEnd+1]), &errorData) == nil {
				apiErr.Message = errorData.Message
				apiErr.Type = errorData.Type
				apiErr.Code = errorData.Code
				if errorData.Code == "insufficient_quota" {
					apiErr.IsPermanent = true
				}
			}
		}
	}

	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter
	return apiErr
}

// GetRetryDelay computes the backoff before retrying a failed model
// call. Quota errors back off in hours, rate limits in minutes.
func GetRetryDelay(err error, attempt int) time.Duration {
	shift := attempt
	if shift < 0 {
		shift = 0
	}
	if shift > 10 {
		shift = 10
	}

	if IsQuotaError(err) {
		delay := time.Hour * time.Duration(1<<uint(shift))
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	}
	if IsRateLimitError(err) {
		delay := 60 * time.Second * time.Duration(1<<uint(shift))
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		if apiErr := ExtractAPIError(err); apiErr != nil && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}
	// Generic transient failure: modest exponential backoff.
	delay := 5 * time.Second * time.Duration(1<<uint(shift))
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
