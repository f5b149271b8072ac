package main

import "github.com/adyen/checkout-sessions-go/internal/cli"

func main() {
	cli.Execute()
}
