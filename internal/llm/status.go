package llm

import (
	"net/http"

	"equity-advisor/internal/api"
)

// Classify marks client errors other than 429 as permanent so retries stop early.
func Classify(status int, err error) error {
	if err == nil {
		return nil
	}
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return api.Permanent(err)
	}
	return err
}
