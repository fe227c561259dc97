package main

import (
	"github.com/bondilirithika/dynamic-saml/internal/cli"
)

func main() {
	cli.Execute()
}
