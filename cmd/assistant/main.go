package main

import (
	"context"

	"github.com/shikharsehgal1/tassnewnewinsurancebot/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
