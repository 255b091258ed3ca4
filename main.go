package main

import (
	"errors"
	"os"

	"airbnb-pipeline/cli"
	"airbnb-pipeline/utils"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrCheckFailed) {
			utils.NewLogger().Error("%v", err)
		}
		os.Exit(1)
	}
}
