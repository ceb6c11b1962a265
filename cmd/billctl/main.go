package main

import (
	"os"

	"github.com/smallbiznis/weighbill/cmd/billctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
