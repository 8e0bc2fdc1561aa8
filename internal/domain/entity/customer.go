package entity

// Customer cliente ERPNext; sólo los datos fiscales que intervienen en la elección de letra.
type Customer struct {
	Name         string
	CustomerName string
	TaxID        string // CUIT
	CondicionIVA string
	IsCompany    bool // customer_type = Company
}
