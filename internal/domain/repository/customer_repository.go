package repository

import (
	"context"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// CustomerRepository lectura de datos fiscales del cliente.
type CustomerRepository interface {
	Get(ctx context.Context, name string) (*entity.Customer, error)
}
