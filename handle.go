package oidcrp

import (
	"net/http"
	"strings"

	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// LogHandler wraps an authentication handler, reporting the error it returns.
type LogHandler func(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc

// logErrors logs server faults at error level and client failures at info level.
func logErrors(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		if httpio.CauseIsError(err) {
			logger.Req(r).Error(errors.Wrapf(err, "oidc authentication %s %s", r.Method, r.URL.Path))

			return
		}
		logger.Req(r).Infof("oidc authentication %s %s rejected: %s", r.Method, r.URL.Path, strings.Join(httpio.Messages(err), "; "))
	}
}
