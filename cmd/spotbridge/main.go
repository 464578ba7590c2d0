package main

import "github.com/llehouerou/spotbridge/internal/cli"

func main() {
	cli.Execute()
}
