package main

import (
	"flag"

	"github.com/jhoicas/tenancy-gateway/internal/infrastructure/postgres"
	"github.com/jhoicas/tenancy-gateway/pkg/config"
	"github.com/jhoicas/tenancy-gateway/pkg/logger"
)

func main() {
	var (
		command = flag.String("command", postgres.MigrateUp, "Comando de migración (up, down, force)")
		version = flag.Int("version", 1, "Versión a forzar (sólo con force)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	log.Info().Str("command", *command).Msg("ejecutando migraciones")
	if err := postgres.Migrate(cfg.DB.ConnectionString(), *command, *version); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("migración fallida")
	}
	log.Info().Str("command", *command).Msg("migraciones aplicadas")
}
