//go:build insecurecookie

package session

// Cookies are written without the Secure flag so plain http development servers work.
func secureCookie() bool {
	return false
}
