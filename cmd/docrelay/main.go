package main

import (
	"os"

	"github.com/docrelay/docrelay/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
