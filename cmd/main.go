package main

import (
	"flag"

	"clinic-appointment-service/cmd/bootstrap"

	"github.com/sirupsen/logrus"
)

func main() {
	checkOnly := flag.Bool("check", false, "connect to every dependency and exit")
	flag.Parse()

	app, err := bootstrap.New()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	if *checkOnly {
		app.Close()
		logrus.Info("Configuration and dependencies are healthy")
		return
	}

	app.Run()
}
