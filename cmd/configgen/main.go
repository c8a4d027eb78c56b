package main

import (
	"flag"
	"log"

	"github.com/danmuck/ibctl/internal/config"
)

func defaultPath(kind string) string {
	switch kind {
	case "profile":
		return "cmd/ibctl/profile.toml"
	case "ibctl":
		return "cmd/ibctl/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

func main() {
	kind := flag.String("kind", "profile", "config kind: profile|ibctl")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing profile file")
	input := flag.String("input", "", "profile path for validation (defaults to cmd/ibctl/profile.toml)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath("profile")
		}
		profile, err := config.LoadProfile(path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated profile at %s (paper gateway %s)", path, profile.Endpoint(config.Paper, config.Gateway))
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}
