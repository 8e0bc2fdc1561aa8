package erpnext

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

var (
	_ repository.VoucherRepository = (*VoucherRepo)(nil)
	_ repository.DocumentWorkflow  = (*Workflow)(nil)
)

// VoucherRepo comprobantes (Sales Invoice, Purchase Invoice, Delivery Note).
type VoucherRepo struct {
	c *Client
}

// NewVoucherRepository construye el adaptador.
func NewVoucherRepository(c *Client) *VoucherRepo {
	return &VoucherRepo{c: c}
}

// ListConfirmedNames nombres con docstatus=1 que cumplen el patrón LIKE; sin paginar.
func (r *VoucherRepo) ListConfirmedNames(ctx context.Context, doctype entity.VoucherDoctype, pattern string) ([]string, error) {
	filters := [][]any{
		{"name", "like", pattern},
		{"docstatus", "=", int(entity.DocstatusActive)},
	}
	var rows []struct {
		Name string `json:"name"`
	}
	if err := r.c.listDocs(ctx, string(doctype), filters, []string{"name"}, &rows); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

func (r *VoucherRepo) GetDocstatus(ctx context.Context, doctype entity.VoucherDoctype, name string) (entity.Docstatus, error) {
	var doc struct {
		Docstatus int `json:"docstatus"`
	}
	if err := r.c.getDoc(ctx, string(doctype), name, &doc); err != nil {
		return 0, err
	}
	return entity.Docstatus(doc.Docstatus), nil
}

// Rename vía frappe.client.rename_doc (sin merge).
func (r *VoucherRepo) Rename(ctx context.Context, doctype entity.VoucherDoctype, oldName, newName string) error {
	args := map[string]any{
		"doctype":  string(doctype),
		"old_name": oldName,
		"new_name": newName,
		"merge":    false,
	}
	var renamed string
	if err := r.c.call(ctx, "frappe.client.rename_doc", args, &renamed); err != nil {
		return err
	}
	if renamed != "" && renamed != newName {
		return fmt.Errorf("ERPNext renombró %s a %s en lugar de %s", oldName, renamed, newName)
	}
	r.c.log.Info().Str("doctype", string(doctype)).Str("anterior", oldName).Str("nuevo", newName).Msg("comprobante renombrado")
	return nil
}

// ── Workflow ──────────────────────────────────────────────────────────────────

// Workflow submit/cancel de cualquier doctype.
type Workflow struct {
	c *Client
}

// NewWorkflow construye el adaptador.
func NewWorkflow(c *Client) *Workflow {
	return &Workflow{c: c}
}

// Submit frappe.client.submit recibe el documento completo: se lee antes para enviar el modified vigente.
func (w *Workflow) Submit(ctx context.Context, doctype, name string) error {
	var doc map[string]json.RawMessage
	if err := w.c.getDoc(ctx, doctype, name, &doc); err != nil {
		return fmt.Errorf("submit %s %s: %w", doctype, name, err)
	}
	if err := w.c.call(ctx, "frappe.client.submit", map[string]any{"doc": doc}, nil); err != nil {
		return fmt.Errorf("submit %s %s: %w", doctype, name, err)
	}
	return nil
}

func (w *Workflow) Cancel(ctx context.Context, doctype, name string) error {
	args := map[string]any{"doctype": doctype, "name": name}
	if err := w.c.call(ctx, "frappe.client.cancel", args, nil); err != nil {
		return fmt.Errorf("cancel %s %s: %w", doctype, name, err)
	}
	return nil
}
