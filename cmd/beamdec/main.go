package main

import (
	"github.com/MeKo-Tech/beamdec/cmd/beamdec/cmd"
)

func main() {
	cmd.Execute()
}
