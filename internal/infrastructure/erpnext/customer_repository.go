package erpnext

import (
	"context"
	"fmt"

	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo lectura del doctype Customer.
type CustomerRepo struct {
	c *Client
}

// NewCustomerRepository construye el adaptador.
func NewCustomerRepository(c *Client) *CustomerRepo {
	return &CustomerRepo{c: c}
}

// Get la condición IVA sale del campo condicion_iva; si falta se usa tax_category.
func (r *CustomerRepo) Get(ctx context.Context, name string) (*entity.Customer, error) {
	var doc struct {
		Name         string `json:"name"`
		CustomerName string `json:"customer_name"`
		CustomerType string `json:"customer_type"`
		TaxID        string `json:"tax_id"`
		CondicionIVA string `json:"condicion_iva"`
		TaxCategory  string `json:"tax_category"`
	}
	if err := r.c.getDoc(ctx, "Customer", name, &doc); err != nil {
		return nil, fmt.Errorf("cliente %s: %w", name, err)
	}
	condicion := doc.CondicionIVA
	if condicion == "" {
		condicion = doc.TaxCategory
	}
	return &entity.Customer{
		Name:         doc.Name,
		CustomerName: doc.CustomerName,
		TaxID:        doc.TaxID,
		CondicionIVA: condicion,
		IsCompany:    doc.CustomerType == "Company",
	}, nil
}
