package main

import (
	"flag"
	"log"

	"github.com/danmuck/battleboats/internal/config"
)

const defaultPath = "cmd/boatctl/config.toml"

func main() {
	name := flag.String("name", "", "peer name written into the template")
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadPeerConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated config for %s at %s", cfg.Name, *input)
		return
	}

	if err := config.WriteTemplate(*output, *name, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote config template to %s", *output)
}
