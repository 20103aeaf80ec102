package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/orbitsound/orbitsound-sync/internal/orbitservice"
)

func main() {
	if err := orbitservice.Run(); err != nil {
		log.Error().Err(err).Msg("orbit-service exited with error")
		os.Exit(1)
	}
}
