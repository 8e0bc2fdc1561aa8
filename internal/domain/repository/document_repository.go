package repository

import (
	"context"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
)

// DocumentWorkflow acciones de docstatus sobre cualquier doctype ERPNext.
type DocumentWorkflow interface {
	Submit(ctx context.Context, doctype, name string) error
	Cancel(ctx context.Context, doctype, name string) error
}

// VoucherRepository consultas y renombre de comprobantes (Sales Invoice, Purchase Invoice, Delivery Note).
type VoucherRepository interface {
	// ListConfirmedNames nombres de comprobantes con docstatus=1 que cumplen el patrón LIKE.
	ListConfirmedNames(ctx context.Context, doctype entity.VoucherDoctype, pattern string) ([]string, error)
	GetDocstatus(ctx context.Context, doctype entity.VoucherDoctype, name string) (entity.Docstatus, error)
	Rename(ctx context.Context, doctype entity.VoucherDoctype, oldName, newName string) error
}
