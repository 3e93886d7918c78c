// Command restaurant-feed drives the restaurant list and detail controllers
// against the consumer API from the terminal, or serves them over HTTP.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
