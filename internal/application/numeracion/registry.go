package numeracion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jhoicas/talonarios-api/internal/application/dto"
	"github.com/jhoicas/talonarios-api/internal/domain"
	domafip "github.com/jhoicas/talonarios-api/internal/domain/afip"
	"github.com/jhoicas/talonarios-api/internal/domain/entity"
	"github.com/jhoicas/talonarios-api/internal/domain/repository"
	"github.com/jhoicas/talonarios-api/pkg/afip"
)

// ListQuery filtros del listado de talonarios.
type ListQuery struct {
	Tipo       string
	Docstatus  *int
	ActiveOnly bool
}

// OptionsQuery datos del receptor para resolver las opciones de numeración.
// Si Cliente viene, la condición IVA y el tipo de cliente se leen de ERPNext.
type OptionsQuery struct {
	Cliente      string
	CondicionIVA string
	IsCompany    bool
	Tipo         string // tipo de comprobante; por defecto FAC
	Exclude      string
}

// Registry superficie de consulta y alta/edición de talonarios por compañía.
type Registry struct {
	talonarios   repository.TalonarioRepository
	vouchers     repository.VoucherRepository
	customers    repository.CustomerRepository
	workflow     repository.DocumentWorkflow
	allocator    *Allocator
	transitioner *Transitioner
	codes        *afip.Codes
	caches       Caches
	validate     *validator.Validate
	log          zerolog.Logger
	mirrorLocks  sync.Map // talonario -> *sync.Mutex de ultimos_numeros
}

// NewRegistry construye el registro.
func NewRegistry(
	talonarios repository.TalonarioRepository,
	vouchers repository.VoucherRepository,
	customers repository.CustomerRepository,
	workflow repository.DocumentWorkflow,
	allocator *Allocator,
	transitioner *Transitioner,
	codes *afip.Codes,
	caches Caches,
	log zerolog.Logger,
) *Registry {
	return &Registry{
		talonarios:   talonarios,
		vouchers:     vouchers,
		customers:    customers,
		workflow:     workflow,
		allocator:    allocator,
		transitioner: transitioner,
		codes:        codes,
		caches:       caches,
		validate:     newValidator(),
		log:          log,
	}
}

// ── Alta ──────────────────────────────────────────────────────────────────────

// Create da de alta un talonario en borrador (docstatus 0).
func (r *Registry) Create(ctx context.Context, company string, in dto.CreateTalonarioRequest) (*dto.TalonarioResponse, error) {
	if err := validateStruct(r.validate, in); err != nil {
		return nil, err
	}
	if !afip.IsTalonarioType(in.Tipo) {
		return nil, domain.NewValidationError(fmt.Sprintf("tipo_de_talonario %q no reconocido", in.Tipo))
	}
	letras, err := domafip.NormalizeLetters(toEntityLetters(in.Letras))
	if err != nil {
		return nil, err
	}
	if err := domafip.CheckResguardo(in.Tipo, letras); err != nil {
		return nil, err
	}
	pv, err := domafip.PadPuntoVenta(in.PuntoVenta)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	comprobantes, err := r.authorizedCodes(in.Comprobantes)
	if err != nil {
		return nil, err
	}

	t := &entity.Talonario{
		Name:               strings.TrimSpace(in.Name),
		Company:            company,
		Tipo:               in.Tipo,
		Descripcion:        in.Descripcion,
		PuntoVenta:         pv,
		TipoNumeracion:     in.TipoNumeracion,
		NumeroInicio:       in.NumeroInicio,
		NumeroFin:          in.NumeroFin,
		FacturaElectronica: in.FacturaElectronica,
		PorDefecto:         in.PorDefecto,
		MetodoNumeracion:   strings.TrimSpace(in.MetodoNumeracion),
		Letras:             letras,
		Comprobantes:       comprobantes,
		Docstatus:          entity.DocstatusDraft,
	}
	if t.TipoNumeracion == "" {
		t.TipoNumeracion = afip.NumeracionAutomatica
	}
	if t.MetodoNumeracion == "" && len(letras) > 0 {
		prefix := r.codes.Prefix(domafip.CategoryFor(afip.DominioVenta, t.Tipo, t.FacturaElectronica))
		t.MetodoNumeracion, err = domafip.Build(prefix, afip.TipoFactura, letras[0].Letra, pv, t.NumeroInicio)
		if err != nil {
			return nil, err
		}
	}

	created, err := r.talonarios.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("crear talonario %s: %w", t.Name, err)
	}
	r.invalidate(ctx, created.Company, created.Name)
	r.log.Info().Str("talonario", created.Name).Str("compania", company).Str("tipo", created.Tipo).Msg("talonario creado")
	return toTalonarioResponse(created), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// Get detalle del talonario (cacheado por nombre).
func (r *Registry) Get(ctx context.Context, company, name string) (*dto.TalonarioResponse, error) {
	t, err := r.load(ctx, company, name)
	if err != nil {
		return nil, err
	}
	return toTalonarioResponse(t), nil
}

// List talonarios de la compañía; sólo tipos de la allow-list.
func (r *Registry) List(ctx context.Context, company string, q ListQuery) ([]dto.TalonarioResponse, error) {
	f := entity.TalonarioFilter{Company: company, Tipo: strings.TrimSpace(q.Tipo), ActiveOnly: q.ActiveOnly}
	if f.Tipo != "" && !afip.IsTalonarioType(f.Tipo) {
		return nil, domain.NewValidationError(fmt.Sprintf("tipo_de_talonario %q no reconocido", f.Tipo))
	}
	if q.Docstatus != nil {
		ds := entity.Docstatus(*q.Docstatus)
		if !ds.Valid() {
			return nil, domain.NewValidationError(fmt.Sprintf("docstatus %d inválido (0, 1 o 2)", *q.Docstatus))
		}
		f.Docstatus = &ds
	}
	list, err := r.talonarios.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar talonarios: %w", err)
	}
	return toTalonarioList(filterAllowed(list, f)), nil
}

// Default talonario marcado por defecto (activo o borrador) de la compañía.
func (r *Registry) Default(ctx context.Context, company string) (*dto.TalonarioResponse, error) {
	if t, ok := r.caches.Default.Get(ctx, company); ok {
		return toTalonarioResponse(t), nil
	}
	yes := true
	list, err := r.talonarios.List(ctx, entity.TalonarioFilter{Company: company, ActiveOnly: true, PorDefecto: &yes})
	if err != nil {
		return nil, fmt.Errorf("talonario por defecto: %w", err)
	}
	list = filterAllowed(list, entity.TalonarioFilter{ActiveOnly: true})
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: la compañía %s no tiene talonario por defecto", domain.ErrNotFound, company)
	}
	r.caches.Default.Set(ctx, company, list[0])
	return toTalonarioResponse(list[0]), nil
}

// Resguardos talonarios de resguardo activos o en borrador de la compañía.
func (r *Registry) Resguardos(ctx context.Context, company string) ([]dto.TalonarioResponse, error) {
	if list, ok := r.caches.Resguardos.Get(ctx, company); ok {
		return toTalonarioList(list), nil
	}
	f := entity.TalonarioFilter{Company: company, Tipo: afip.TalonarioResguardo, ActiveOnly: true}
	list, err := r.talonarios.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("talonarios de resguardo: %w", err)
	}
	list = filterAllowed(list, f)
	r.caches.Resguardos.Set(ctx, company, list)
	return toTalonarioList(list), nil
}

// NextNumber sugerencia del próximo número de una serie. No reserva el número.
func (r *Registry) NextNumber(ctx context.Context, company, name string, q SeriesQuery) (*dto.NextNumberResponse, error) {
	t, err := r.loadFresh(ctx, company, name)
	if err != nil {
		return nil, err
	}
	n, err := r.allocator.NextNumberFor(ctx, t, q)
	if err != nil {
		return nil, err
	}
	if t.NumeroFin > 0 && n > t.NumeroFin {
		return nil, fmt.Errorf("%w: %s terminó en %d", domain.ErrRangeExhausted, t.Name, t.NumeroFin)
	}
	nq := q.normalized()
	preview, err := r.allocator.PreviewName(t, nq, n)
	if err != nil {
		return nil, err
	}
	return &dto.NextNumberResponse{Talonario: t.Name, Tipo: nq.Tipo, Letra: nq.Letra, Numero: n, NombreSugerido: preview}, nil
}

// ResolveOptionsForCustomer cruza las letras habilitadas por la condición IVA del receptor con
// las letras y códigos autorizados de cada talonario activo. El número sugerido no se reserva.
// La condición de empresa del cliente no cambia las letras habilitadas.
func (r *Registry) ResolveOptionsForCustomer(ctx context.Context, company string, q OptionsQuery) ([]dto.OptionResponse, error) {
	condicion := q.CondicionIVA
	if q.Cliente != "" {
		c, err := r.customers.Get(ctx, q.Cliente)
		if err != nil {
			return nil, fmt.Errorf("cliente %s: %w", q.Cliente, err)
		}
		condicion = c.CondicionIVA
		q.IsCompany = c.IsCompany
		if afip.RequiereCUIT(condicion) {
			if err := afip.ValidateCUIT(c.TaxID); err != nil {
				return nil, domain.NewValidationError(fmt.Sprintf("cliente %s: %v", q.Cliente, err))
			}
		}
	}
	tipo := strings.ToUpper(strings.TrimSpace(q.Tipo))
	if tipo == "" {
		tipo = afip.TipoFactura
	}
	if !r.codes.IsTipo(tipo) {
		return nil, domain.NewValidationError(fmt.Sprintf("tipo de comprobante %q desconocido", tipo))
	}
	eligible := afip.LetrasHabilitadas(condicion)
	r.log.Debug().
		Str("condicion_iva", condicion).
		Bool("is_company", q.IsCompany).
		Strs("letras", eligible).
		Msg("letras habilitadas para el receptor")

	f := entity.TalonarioFilter{Company: company, ActiveOnly: true}
	list, err := r.talonarios.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar talonarios: %w", err)
	}

	options := make([]dto.OptionResponse, 0)
	for _, t := range filterAllowed(list, f) {
		for _, letra := range t.LetterCodes() {
			if !contains(eligible, letra) || !domafip.TalonarioEmite(t.Tipo, tipo, letra) {
				continue
			}
			code := r.codes.CodeFor(tipo, letra)
			if code == "" || !t.AuthorizesCode(code) {
				continue
			}
			sq := SeriesQuery{Tipo: tipo, Letra: letra, Dominio: afip.DominioVenta, Exclude: q.Exclude}
			n, err := r.allocator.NextNumberFor(ctx, t, sq)
			if err != nil {
				return nil, err
			}
			preview, err := r.allocator.PreviewName(t, sq, n)
			if err != nil {
				return nil, err
			}
			info, _ := r.codes.Lookup(code)
			options = append(options, dto.OptionResponse{
				Talonario:       t.Name,
				TipoTalonario:   t.Tipo,
				TipoComprobante: tipo,
				CodigoAFIP:      code,
				Descripcion:     info.Descripcion,
				Letra:           letra,
				PuntoVenta:      t.PuntoVenta,
				NumeroSugerido:  n,
				NombreSugerido:  preview,
				NumeracionAuto:  t.IsAutomatic(),
			})
		}
	}
	return options, nil
}

// ── Edición ───────────────────────────────────────────────────────────────────

// Update aplica cambios parciales. Si viene docstatus, la transición se ejecuta primero.
func (r *Registry) Update(ctx context.Context, company, name string, in dto.UpdateTalonarioRequest) (*dto.TalonarioResponse, error) {
	if err := validateStruct(r.validate, in); err != nil {
		return nil, err
	}
	t, err := r.loadFresh(ctx, company, name)
	if err != nil {
		return nil, err
	}
	defer r.invalidate(ctx, t.Company, t.Name)

	if in.Docstatus != nil {
		t, err = r.transitioner.TransitionFrom(ctx, t, entity.Docstatus(*in.Docstatus))
		if err != nil {
			return nil, err
		}
	}

	changes, err := r.buildChanges(t, in)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return toTalonarioResponse(t), nil
	}
	updated, err := r.talonarios.Update(ctx, t.Name, changes)
	if err != nil {
		return nil, fmt.Errorf("actualizar talonario %s: %w", t.Name, err)
	}
	r.log.Info().Str("talonario", t.Name).Msg("talonario actualizado")
	return toTalonarioResponse(updated), nil
}

func (r *Registry) buildChanges(t *entity.Talonario, in dto.UpdateTalonarioRequest) (entity.TalonarioChanges, error) {
	changes := entity.TalonarioChanges{
		Descripcion:        in.Descripcion,
		TipoNumeracion:     in.TipoNumeracion,
		NumeroInicio:       in.NumeroInicio,
		NumeroFin:          in.NumeroFin,
		FacturaElectronica: in.FacturaElectronica,
		PorDefecto:         in.PorDefecto,
		MetodoNumeracion:   in.MetodoNumeracion,
	}
	if in.PuntoVenta != nil {
		pv, err := domafip.PadPuntoVenta(*in.PuntoVenta)
		if err != nil {
			return changes, domain.NewValidationError(err.Error())
		}
		changes.PuntoVenta = &pv
	}
	if in.Letras != nil {
		letras, err := domafip.NormalizeLetters(toEntityLetters(*in.Letras))
		if err != nil {
			return changes, err
		}
		if err := domafip.CheckResguardo(t.Tipo, letras); err != nil {
			return changes, err
		}
		changes.Letras = &letras
	}

	start, end := t.NumeroInicio, t.NumeroFin
	if changes.NumeroInicio != nil {
		start = *changes.NumeroInicio
	}
	if changes.NumeroFin != nil {
		end = *changes.NumeroFin
	}
	if start < 1 || end < start {
		return changes, domain.NewValidationError(fmt.Sprintf("rango inválido: inicio %d, fin %d", start, end))
	}
	return changes, nil
}

// ── Confirmación de comprobantes ─────────────────────────────────────────────

// ConfirmVoucher asigna el número definitivo a un comprobante borrador, lo renombra,
// lo confirma en ERPNext y actualiza ultimos_numeros del talonario.
// Un talonario en borrador se activa en su primer uso; uno anulado no emite.
func (r *Registry) ConfirmVoucher(ctx context.Context, company, name string, in dto.ConfirmVoucherRequest) (*dto.ConfirmVoucherResponse, error) {
	if err := validateStruct(r.validate, in); err != nil {
		return nil, err
	}
	t, err := r.loadFresh(ctx, company, name)
	if err != nil {
		return nil, err
	}
	defer r.invalidate(ctx, t.Company, t.Name)

	if t.Docstatus == entity.DocstatusCancelled {
		return nil, fmt.Errorf("%w: el talonario %s está anulado", domain.ErrIllegalTransition, t.Name)
	}

	// Todo lo que puede rechazar la confirmación va antes de activar el talonario:
	// la activación no se deshace.
	q := SeriesQuery{Tipo: in.Tipo, Letra: in.Letra, Dominio: in.Dominio}.normalized()
	if err := r.allocator.checkSeries(t, q); err != nil {
		return nil, err
	}
	doctype := doctypeFor(q.Dominio, q.Tipo)
	status, err := r.vouchers.GetDocstatus(ctx, doctype, in.Comprobante)
	if err != nil {
		return nil, fmt.Errorf("comprobante %s: %w", in.Comprobante, err)
	}
	if status != entity.DocstatusDraft {
		return nil, fmt.Errorf("%w: el comprobante %s no está en borrador (%s)", domain.ErrConflict, in.Comprobante, status)
	}

	if t.Docstatus == entity.DocstatusDraft {
		next, err := r.allocator.NextNumberFor(ctx, t, q)
		if err != nil {
			return nil, err
		}
		if t.NumeroFin > 0 && next > t.NumeroFin {
			return nil, fmt.Errorf("%w: %s terminó en %d", domain.ErrRangeExhausted, t.Name, t.NumeroFin)
		}
		if t, err = r.transitioner.TransitionFrom(ctx, t, entity.DocstatusActive); err != nil {
			return nil, err
		}
	}

	issued, err := r.allocator.Allocate(ctx, t, q, in.Comprobante)
	if err != nil {
		return nil, err
	}
	if issued.Comprobante != in.Comprobante {
		if err := r.vouchers.Rename(ctx, doctype, in.Comprobante, issued.Comprobante); err != nil {
			r.log.Error().Err(err).Str("comprobante", in.Comprobante).Int64("numero", issued.Numero).
				Msg("número asignado sin renombrar el comprobante")
			return nil, fmt.Errorf("renombrar %s a %s: %w", in.Comprobante, issued.Comprobante, err)
		}
	}
	if err := r.workflow.Submit(ctx, string(doctype), issued.Comprobante); err != nil {
		r.log.Error().Err(err).Str("comprobante", issued.Comprobante).Msg("comprobante renombrado sin confirmar")
		return nil, fmt.Errorf("confirmar %s: %w", issued.Comprobante, err)
	}

	r.mirrorLastNumber(ctx, t.Name, issued)

	return &dto.ConfirmVoucherResponse{
		Talonario:   t.Name,
		Anterior:    in.Comprobante,
		Comprobante: issued.Comprobante,
		Numero:      issued.Numero,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// mirrorLastNumber registra el número emitido en ultimos_numeros sobre una copia recién leída,
// para no pisar lo que otra confirmación escribió después de cargar el talonario.
// El contador transaccional es la fuente de verdad: un fallo acá sólo se loguea.
func (r *Registry) mirrorLastNumber(ctx context.Context, talonario string, issued *entity.IssuedNumber) {
	mu, _ := r.mirrorLocks.LoadOrStore(talonario, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	t, err := r.talonarios.Get(ctx, talonario)
	if err != nil {
		r.log.Warn().Err(err).Str("talonario", talonario).Msg("no se pudo releer el talonario para ultimos_numeros")
		return
	}
	if !t.RecordNumber(issued.Tipo, issued.Letra, issued.Numero, issued.Comprobante) {
		return
	}
	if err := r.talonarios.SaveUltimosNumeros(ctx, talonario, t.UltimosNumeros); err != nil {
		r.log.Warn().Err(err).Str("talonario", talonario).Msg("no se pudo actualizar ultimos_numeros")
	}
}

// load detalle desde caché o ERPNext, verificando la compañía.
func (r *Registry) load(ctx context.Context, company, name string) (*entity.Talonario, error) {
	if t, ok := r.caches.Detail.Get(ctx, name); ok {
		if t.Company != company {
			return nil, domain.ErrForbidden
		}
		return t, nil
	}
	t, err := r.loadFresh(ctx, company, name)
	if err != nil {
		return nil, err
	}
	r.caches.Detail.Set(ctx, name, t)
	return t, nil
}

// loadFresh lee siempre de ERPNext; lo usan las operaciones que escriben o numeran.
func (r *Registry) loadFresh(ctx context.Context, company, name string) (*entity.Talonario, error) {
	t, err := r.talonarios.Get(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTalonarioNotFound, name)
		}
		return nil, fmt.Errorf("cargar talonario %s: %w", name, err)
	}
	if t.Company != company {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

func (r *Registry) invalidate(ctx context.Context, company, name string) {
	r.caches.Detail.Delete(ctx, name)
	r.caches.Default.Delete(ctx, company)
	r.caches.Resguardos.Delete(ctx, company)
}

func (r *Registry) authorizedCodes(in []dto.ComprobanteDTO) ([]entity.ComprobanteAutorizado, error) {
	out := make([]entity.ComprobanteAutorizado, 0, len(in))
	var unknown []string
	for _, c := range in {
		info, ok := r.codes.Lookup(c.CodigoAFIP)
		if !ok {
			unknown = append(unknown, fmt.Sprintf("código AFIP %q desconocido", c.CodigoAFIP))
			continue
		}
		desc := c.Descripcion
		if desc == "" {
			desc = info.Descripcion
		}
		out = append(out, entity.ComprobanteAutorizado{CodigoAFIP: c.CodigoAFIP, Descripcion: desc})
	}
	if len(unknown) > 0 {
		return nil, domain.NewValidationError(unknown...)
	}
	return out, nil
}

// filterAllowed descarta tipos fuera de la allow-list y aplica el filtro de estado
// aunque el repositorio ya lo haya hecho.
func filterAllowed(list []*entity.Talonario, f entity.TalonarioFilter) []*entity.Talonario {
	out := make([]*entity.Talonario, 0, len(list))
	for _, t := range list {
		if !afip.IsTalonarioType(t.Tipo) {
			continue
		}
		if f.ActiveOnly && t.Docstatus == entity.DocstatusCancelled {
			continue
		}
		if f.Docstatus != nil && t.Docstatus != *f.Docstatus {
			continue
		}
		out = append(out, t)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
