package oidcrp

import (
	"net/http"

	"github.com/cccteam/httpio"
	"github.com/cccteam/logger"
	"github.com/go-playground/errors/v5"
)

// Reporter writes the response for a terminal Outcome.
type Reporter interface {
	Success(w http.ResponseWriter, r *http.Request, user any, info Info)
	Fail(w http.ResponseWriter, r *http.Request, info Info, err error)
	Error(w http.ResponseWriter, r *http.Request, err error)
}

// Report delivers o to exactly one of rep's methods. Redirect is answered
// with 302 Found.
func Report(w http.ResponseWriter, r *http.Request, o Outcome, rep Reporter) {
	switch o.Result {
	case Redirect:
		http.Redirect(w, r, o.RedirectURL, http.StatusFound)
	case Success:
		rep.Success(w, r, o.User, o.Info)
	case Fail:
		rep.Fail(w, r, o.Info, o.Err)
	default:
		err := o.Err
		if err == nil {
			err = errors.Newf("unexpected result %s", o.Result)
		}
		rep.Error(w, r, err)
	}
}

// DefaultReporter answers with httpio messages: the user as the body of a
// 200 on success, 401 on failure and 500 on error.
type DefaultReporter struct{}

var _ Reporter = DefaultReporter{}

// Success implements Reporter
func (DefaultReporter) Success(w http.ResponseWriter, r *http.Request, user any, _ Info) {
	if err := httpio.NewEncoder(w).Ok(user); err != nil {
		logger.Req(r).Error(errors.Wrap(err, "httpio.Encoder.Ok()"))
	}
}

// Fail implements Reporter
func (DefaultReporter) Fail(w http.ResponseWriter, r *http.Request, info Info, err error) {
	msg := "authentication failed"
	if m, ok := info["message"].(string); ok && m != "" {
		msg = m
	}

	var clientErr error
	if err != nil {
		clientErr = httpio.NewUnauthorizedMessageWithError(err, msg)
	} else {
		clientErr = httpio.NewUnauthorizedMessage(msg)
	}

	if err := httpio.NewEncoder(w).ClientMessage(r.Context(), clientErr); err != nil {
		logger.Req(r).Infof("authentication failed: %s", msg)
	}
}

// Error implements Reporter
func (DefaultReporter) Error(w http.ResponseWriter, r *http.Request, err error) {
	logger.Req(r).Error(err)

	_ = httpio.NewEncoder(w).ClientMessage(r.Context(), httpio.NewInternalServerErrorMessageWithError(err, "authentication error"))
}
