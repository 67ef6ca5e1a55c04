package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/forPelevin/capburn/internal/cli"
)

func main() {
	cli.Main()
}
