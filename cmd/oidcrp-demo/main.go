// Command oidcrp-demo is a multi-tenant relying party that signs users in
// with the OpenID Provider configured for each tenant.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
