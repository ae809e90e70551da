package main

import (
	"fmt"
	"os"

	"github.com/santiagomed/mindful/cli"
	"github.com/santiagomed/mindful/logger"
)

func main() {
	if err := logger.InitLogger(); err != nil {
		fmt.Fprintf(os.Stderr, "Logging disabled: %v\n", err)
	}
	cli.Execute()
}
