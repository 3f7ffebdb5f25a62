package dwd

import (
	"log/slog"
	"net/http"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// NewHTTPClient returns the client shared by the HTTP based adapters.
// Connection errors and 5xx responses are retried conf.Retries times; once
// retries run out the last response is handed back as is, so adapters can
// read the provider's error payload.
func NewHTTPClient(conf HTTPConfig, log *slog.Logger) *http.Client {
	if log == nil {
		log = discard
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.HTTPClient.Timeout = time.Duration(conf.Timeout) * time.Second
	rc.RetryMax = conf.Retries
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = log.With(slog.String("component", "http"))
	return rc.StandardClient()
}
