package main

import (
	"os"

	"github.com/dmitrijs2005/cyberguard/internal/client/cli"
)

func main() {

	app := cli.NewApp(os.Stdin, int(os.Stdin.Fd()), os.Stdout, os.Stderr)
	os.Exit(app.Run(os.Args[1:]))

}
