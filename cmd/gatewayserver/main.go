package main

import (
	"os"

	"gateway-server/cmd/gatewayserver/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
