package client

import (
	"errors"
	"fmt"
)

// Callback validation failures. These are never provider reported errors.
var (
	ErrStateMismatch       = errors.New("state mismatch")
	ErrStateMissing        = errors.New("state missing from the response")
	ErrCodeMissing         = errors.New("code missing from the response")
	ErrIDTokenMissing      = errors.New("id_token missing from the response")
	ErrAccessTokenMissing  = errors.New("access_token missing from the response")
	ErrNonceMismatch       = errors.New("nonce mismatch")
	ErrSubjectMismatch     = errors.New("userinfo sub mismatch")
	ErrNoUserinfoEndpoint  = errors.New("issuer has no userinfo endpoint")
	ErrUnsupportedCallback = errors.New("unsupported callback request method")
)

// ProtocolError is an error reported by the provider, either on the
// authorization callback or by the token endpoint.
type ProtocolError struct {
	Code        string
	Description string
	URI         string
	State       string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return e.Code
	}

	return fmt.Sprintf("%s (%s)", e.Code, e.Description)
}

func protocolErrorFromParams(p Params) *ProtocolError {
	return &ProtocolError{
		Code:        p.Get(ParamError),
		Description: p.Get(ParamErrorDescription),
		URI:         p.Get(ParamErrorURI),
		State:       p.Get(ParamState),
	}
}
