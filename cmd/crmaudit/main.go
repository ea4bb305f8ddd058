package main

import "github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/cli"

func main() {
	cli.Execute()
}
