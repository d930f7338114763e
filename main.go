package main

import (
	"os"

	"github.com/GoUserDesk/GoUserDesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
