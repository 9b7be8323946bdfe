// Command clerkjwt parses Clerk instance keys and verifies session tokens
// from the command line.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
