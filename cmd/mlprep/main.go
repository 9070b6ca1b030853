// Command mlprep prepares the GoldRecovery, GamingMarket, OilWell and Chicago
// mobility datasets for model training, from the command line or over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
