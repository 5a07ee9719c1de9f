package main

import (
	formatter "github.com/bluexlab/logrus-formatter"
	"github.com/renderwell/farmpki/pkg/cert_handler/cli"
)

func main() {
	formatter.InitLogger()
	app := cli.NewCobraApp()
	app.Run()
}
