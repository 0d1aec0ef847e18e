package main

import (
	"os"

	"github.com/moyoez/fbxcast/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
