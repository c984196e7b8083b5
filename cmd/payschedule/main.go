package main

import "github.com/flexprice/payschedule/internal/cli"

func main() {
	cli.Execute()
}
