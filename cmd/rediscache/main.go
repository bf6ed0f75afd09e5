// Package main provides the rediscache CLI: an HTTP cache service backed by Redis
// plus one-shot commands to inspect and modify cache entries.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
