package main

import (
	"fmt"
	"os"

	"github.com/notsoai/dashboard/internal/cli"
)

func main() {
	env, err := cli.DefaultEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		os.Exit(1)
	}
	if err := cli.NewRootCmd(env).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dashctl:", err)
		os.Exit(1)
	}
}
