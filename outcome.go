package oidcrp

// Result identifies how an authentication attempt ended.
type Result int

const (
	// Redirect sends the user agent to the authorization endpoint.
	Redirect Result = iota + 1
	// Success means the user was authenticated.
	Success
	// Fail means authentication was refused, by the provider or by the verify function.
	Fail
	// Error means an integration, transport or validation failure.
	Error
)

func (r Result) String() string {
	switch r {
	case Redirect:
		return "redirect"
	case Success:
		return "success"
	case Fail:
		return "fail"
	case Error:
		return "error"
	}

	return "unknown"
}

// Info is auxiliary data returned by the verify function alongside the user.
type Info map[string]any

// Outcome is the single result of Strategy.Authenticate.
type Outcome struct {
	Result Result

	// RedirectURL is set for Redirect.
	RedirectURL string

	// User is set for Success.
	User any

	// Info is set for Success and Fail. It is never nil for those results.
	Info Info

	// Err is set for Error, and for Fail when the provider refused the request.
	Err error
}

func redirectTo(url string) Outcome {
	return Outcome{Result: Redirect, RedirectURL: url}
}

func succeed(user any, info Info) Outcome {
	if info == nil {
		info = Info{}
	}

	return Outcome{Result: Success, User: user, Info: info}
}

func fail(info Info, err error) Outcome {
	if info == nil {
		info = Info{}
	}

	return Outcome{Result: Fail, Info: info, Err: err}
}

func errored(err error) Outcome {
	return Outcome{Result: Error, Err: err}
}
