package repository

import (
	"context"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// TalonarioRepository puerto hacia el sistema de registro de talonarios (ERPNext).
type TalonarioRepository interface {
	// List devuelve los talonarios que cumplen el filtro; los tipos fuera de la allow-list no se devuelven.
	List(ctx context.Context, f entity.TalonarioFilter) ([]*entity.Talonario, error)
	// Get devuelve el talonario con sus tablas hijas. domain.ErrNotFound si no existe.
	Get(ctx context.Context, name string) (*entity.Talonario, error)
	Create(ctx context.Context, t *entity.Talonario) (*entity.Talonario, error)
	Update(ctx context.Context, name string, changes entity.TalonarioChanges) (*entity.Talonario, error)
	// SaveUltimosNumeros reemplaza la tabla hija ultimos_numeros.
	SaveUltimosNumeros(ctx context.Context, name string, ultimos []entity.UltimoNumero) error
}
