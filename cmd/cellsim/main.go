package main

import (
	"fmt"
	"os"

	"github.com/KanooooXD/omega-scheduler-simulator/cmd/cellsim/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
