package client

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-playground/errors/v5"
)

// Callback parameter names recognized by CallbackParams.
const (
	ParamCode             = "code"
	ParamState            = "state"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
	ParamIDToken          = "id_token"
	ParamAccessToken      = "access_token"
	ParamTokenType        = "token_type"
	ParamExpiresIn        = "expires_in"
	ParamSessionState     = "session_state"
	ParamIssuer           = "iss"
)

var callbackParamNames = []string{
	ParamCode,
	ParamState,
	ParamError,
	ParamErrorDescription,
	ParamErrorURI,
	ParamIDToken,
	ParamAccessToken,
	ParamTokenType,
	ParamExpiresIn,
	ParamSessionState,
	ParamIssuer,
}

// Params holds the authorization response parameters of a callback request.
type Params map[string]string

// Get returns the value for name, or "" when absent.
func (p Params) Get(name string) string {
	return p[name]
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	_, ok := p[name]

	return ok
}

// CallbackParams extracts the authorization response parameters from r.
// GET requests are read from the query string and POST requests (response_mode=form_post)
// from the url-encoded body. Unrelated parameters are ignored, so a request
// that carries none of the recognized names yields an empty Params.
func CallbackParams(r *http.Request) (Params, error) {
	var get func(string) string
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		get = r.URL.Query().Get
	case http.MethodPost:
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			return Params{}, nil
		}
		if err := r.ParseForm(); err != nil {
			return nil, errors.Wrap(err, "http.Request.ParseForm()")
		}
		get = r.PostForm.Get
	default:
		return nil, errors.Wrapf(ErrUnsupportedCallback, "method %s", r.Method)
	}

	params := make(Params)
	for _, name := range callbackParamNames {
		if v := get(name); v != "" {
			params[name] = v
		}
	}

	return params, nil
}

// responseTypeHas reports whether the space separated response type includes part.
func responseTypeHas(responseType, part string) bool {
	return slices.Contains(strings.Fields(responseType), part)
}
