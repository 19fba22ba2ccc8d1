// Command postdeck manages social media posts from the terminal.
package main

import (
	"context"
	"os"

	"github.com/ibeckermayer/postdeck/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Stdout, os.Args[1:]); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
