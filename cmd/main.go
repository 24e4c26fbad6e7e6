package main

import (
	"fxhub/internal/app"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.Run(); err != nil {
		logrus.WithError(err).Fatal("fxhub stopped with error")
	}
}
