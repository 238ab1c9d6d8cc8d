/*
This command provides an executable version of pathguard with the default
set of filters.

For the list of command line options, run:

	pathguard -help

For details about the configuration of the chains, please see the
documentation of the root pathguard package.
*/
package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/pathguard/pathguard"
	"github.com/pathguard/pathguard/config"
)

func main() {
	cfg := config.NewConfig()
	if err := cfg.Parse(); err != nil {
		log.Fatalf("Error processing config: %s", err)
	}

	log.SetLevel(cfg.ApplicationLogLevel)

	if err := pathguard.Run(cfg.ToOptions()); err != nil {
		log.Fatal(err)
	}
}
