// Command jrblog serves a blog, or builds it into static files.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
