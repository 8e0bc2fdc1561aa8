package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Migrate crea las tablas de numeración. Idempotente (IF NOT EXISTS).
func Migrate(ctx context.Context, q Querier, log zerolog.Logger) error {
	for _, stmt := range migrations {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración fallida: %w\nsentencia: %s", err, stmt)
		}
	}
	log.Info().Int("sentencias", len(migrations)).Msg("migraciones aplicadas")
	return nil
}

var migrations = []string{
	// Último número asignado por serie.
	`CREATE TABLE IF NOT EXISTS talonario_sequence_counters (
		talonario      TEXT        NOT NULL,
		tipo_documento TEXT        NOT NULL,
		letra          TEXT        NOT NULL,
		ultimo_numero  BIGINT      NOT NULL DEFAULT 0 CHECK (ultimo_numero >= 0),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (talonario, tipo_documento, letra)
	)`,

	// Números emitidos: un número y un nombre de comprobante sólo pueden asignarse una vez.
	`CREATE TABLE IF NOT EXISTS talonario_numeros_emitidos (
		id             UUID        PRIMARY KEY,
		talonario      TEXT        NOT NULL,
		tipo_documento TEXT        NOT NULL,
		letra          TEXT        NOT NULL,
		numero         BIGINT      NOT NULL CHECK (numero > 0),
		comprobante    TEXT        NOT NULL UNIQUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (talonario, tipo_documento, letra, numero)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_numeros_emitidos_serie
		ON talonario_numeros_emitidos (talonario, tipo_documento, letra)`,
}
