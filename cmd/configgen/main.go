package main

import (
	"flag"

	"github.com/danmuck/sv2setup/internal/config"
	"github.com/danmuck/sv2setup/internal/logging"
	"github.com/rs/zerolog/log"
)

func defaultPath(kind string) string {
	switch kind {
	case "upstream":
		return "cmd/setupctl/upstream.toml"
	case "downstream":
		return "cmd/setupctl/downstream.toml"
	default:
		log.Fatal().Str("kind", kind).Msg("unknown config kind")
		return ""
	}
}

func main() {
	kind := flag.String("kind", "upstream", "config kind: upstream|downstream")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	logging.ConfigureRuntime()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		var err error
		switch *kind {
		case "upstream":
			_, err = config.LoadUpstreamConfig(path)
		case "downstream":
			_, err = config.LoadDownstreamConfig(path)
		default:
			log.Fatal().Str("kind", *kind).Msg("unknown config kind")
		}
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("config invalid")
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}
