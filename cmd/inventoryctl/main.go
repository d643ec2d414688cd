package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/profitory/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("[config] invalid environment")
	}
	log := config.NewLogger(cfg)

	if err := newApp(cfg, log).Run(os.Args); err != nil {
		log.WithError(err).Fatal("inventoryctl")
	}
}
