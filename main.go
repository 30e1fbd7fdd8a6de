package main

import (
	"github.com/tanpawarit/logistics-control-tower/cmd"
	_ "github.com/tanpawarit/logistics-control-tower/pkg/logger/autoload"
)

func main() {
	cmd.Execute()
}
