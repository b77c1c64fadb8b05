package main

import "award-seat-alerts/internal/cli"

func main() {
	cli.Execute()
}
