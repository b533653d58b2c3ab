package main

import (
	"os"

	"github.com/reshiftsecurity/reshift-scanner/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
