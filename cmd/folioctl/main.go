package main

import (
	"context"
	"fmt"
	"os"

	"folio/internal/cli"
)

func main() {
	if err := cli.RootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "folioctl:", err)
		os.Exit(1)
	}
}
