package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/puntoclub-labs/canje-service/internal/backend"
	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/sirupsen/logrus"
)

// EstadoTransaccion representa el estado de una transacción de canje
type EstadoTransaccion string

const (
	TransaccionInactiva            EstadoTransaccion = "inactiva"
	TransaccionValidando           EstadoTransaccion = "validando"
	TransaccionValidadaCliente     EstadoTransaccion = "validada_cliente"
	TransaccionValidadaPromocion   EstadoTransaccion = "validada_promocion"
	TransaccionValidacionFallida   EstadoTransaccion = "validacion_fallida"
	TransaccionConfirmando         EstadoTransaccion = "confirmando"
	TransaccionConfirmada          EstadoTransaccion = "confirmada"
	TransaccionConfirmacionFallida EstadoTransaccion = "confirmacion_fallida"
	TransaccionCancelada           EstadoTransaccion = "cancelada"
)

// Interpretacion identifica contra cuál de las dos interpretaciones
// mutuamente excluyentes se validó el código
type Interpretacion string

const (
	InterpretacionCliente   Interpretacion = "cliente"
	InterpretacionPromocion Interpretacion = "promocion"
)

// Validacion es la unión etiquetada del resultado de validación. El
// discriminante lo fija el punto de llamada que validó, nunca se infiere de
// la presencia de campos. Un único slot garantiza la exclusión mutua:
// poblar una interpretación descarta cualquier otra anterior.
type Validacion struct {
	Interpretacion Interpretacion                 `json:"interpretacion"`
	Cliente        *models.ValidacionClienteRaw   `json:"cliente,omitempty"`
	Promocion      *models.ValidacionPromocionRaw `json:"promocion,omitempty"`
}

// SolicitudCanje es la terna enviada por el usuario para iniciar la
// validación. TarjetaID asocia opcionalmente una tarjeta cuyo historial de
// puntos debe invalidarse tras confirmar.
type SolicitudCanje struct {
	Codigo    string `validate:"required"`
	DNI       string `validate:"required,numeric"`
	NroTicket string
	TarjetaID string
}

// TransaccionCanje orquesta la transacción de canje en dos fases: validar un
// código ambiguo contra las dos interpretaciones candidatas y confirmar
// exactamente la que validó. No admite operaciones concurrentes: una
// validación o confirmación en curso rechaza cualquier otra.
type TransaccionCanje struct {
	id        uuid.UUID
	backend   backend.CanjeClient
	consultas *cache.Consultas
	logger    *logrus.Logger
	validate  *validator.Validate
	detallado bool

	mu          sync.Mutex
	estado      EstadoTransaccion
	solicitud   SolicitudCanje
	validacion  *Validacion
	generacion  uint64
	validando   bool
	confirmando bool
}

// NewTransaccionCanje crea una transacción de canje en estado inactivo
func NewTransaccionCanje(cliente backend.CanjeClient, consultas *cache.Consultas, logger *logrus.Logger, detallado bool) *TransaccionCanje {
	return &TransaccionCanje{
		id:        uuid.New(),
		backend:   cliente,
		consultas: consultas,
		logger:    logger,
		validate:  validator.New(),
		detallado: detallado,
		estado:    TransaccionInactiva,
	}
}

// ID retorna el identificador de la transacción
func (t *TransaccionCanje) ID() uuid.UUID {
	return t.id
}

// Estado retorna el estado actual de la transacción
func (t *TransaccionCanje) Estado() EstadoTransaccion {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.estado
}

// EstaValidando indica si hay una validación en curso
func (t *TransaccionCanje) EstaValidando() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.validando
}

// EstaConfirmando indica si hay una confirmación en curso
func (t *TransaccionCanje) EstaConfirmando() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.confirmando
}

// ValidacionActual retorna una copia del resultado de validación vigente, o
// nil si no hay ninguno
func (t *TransaccionCanje) ValidacionActual() *Validacion {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.validacion == nil {
		return nil
	}
	copia := *t.validacion
	return &copia
}

// Validar intenta desambiguar el código contra las dos interpretaciones en
// orden fijo: primero código de cliente/puntos, y solo si esa falla, código
// promocional con el mismo (código, dni). Si ambas fallan se reporta un
// único error combinado; las causas subyacentes se registran en el log.
func (t *TransaccionCanje) Validar(ctx context.Context, solicitud SolicitudCanje) error {
	if err := t.validate.Struct(solicitud); err != nil {
		return fmt.Errorf("solicitud de canje inválida: %w", err)
	}

	t.mu.Lock()
	if t.validando || t.confirmando {
		t.mu.Unlock()
		return models.ErrTransaccionEnCurso
	}
	t.validando = true
	t.estado = TransaccionValidando
	t.validacion = nil
	t.solicitud = solicitud
	gen := t.generacion
	t.mu.Unlock()

	// Interpretación A: código de cliente/puntos
	valCliente, errCliente := t.backend.ValidarCodigoCliente(ctx, solicitud.Codigo, solicitud.DNI)
	if errCliente == nil {
		return t.aplicarValidacion(gen, &Validacion{
			Interpretacion: InterpretacionCliente,
			Cliente:        valCliente,
		})
	}

	// Interpretación B: código promocional, solo porque A falló
	valPromocion, errPromocion := t.backend.ValidarCodigoPromocion(ctx, solicitud.Codigo, solicitud.DNI)
	if errPromocion == nil {
		return t.aplicarValidacion(gen, &Validacion{
			Interpretacion: InterpretacionPromocion,
			Promocion:      valPromocion,
		})
	}

	t.logger.WithFields(logrus.Fields{
		"transaccion_id":  t.id,
		"dni":             solicitud.DNI,
		"causa_cliente":   errCliente.Error(),
		"causa_promocion": errPromocion.Error(),
	}).Warn("Ambas interpretaciones rechazaron el código")

	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generacion {
		return models.ErrTransaccionObsoleta
	}
	t.validando = false
	t.estado = TransaccionValidacionFallida
	return &models.ErrorValidacion{
		CausaCliente:   errCliente,
		CausaPromocion: errPromocion,
		Detallado:      t.detallado,
	}
}

// aplicarValidacion registra una validación exitosa, descartando respuestas
// que llegaron después de cancelar o reiniciar la transacción
func (t *TransaccionCanje) aplicarValidacion(gen uint64, validacion *Validacion) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.generacion {
		// Respuesta tardía: el contexto ya fue descartado
		return models.ErrTransaccionObsoleta
	}
	t.validando = false
	t.validacion = validacion
	if validacion.Interpretacion == InterpretacionCliente {
		t.estado = TransaccionValidadaCliente
	} else {
		t.estado = TransaccionValidadaPromocion
	}
	t.logger.WithFields(logrus.Fields{
		"transaccion_id": t.id,
		"interpretacion": validacion.Interpretacion,
	}).Info("Código validado")
	return nil
}

// Confirmar despacha el canje contra la interpretación que validó. Es un
// error de precondición confirmar sin una validación previa exitosa o
// mientras la validación sigue pendiente: no se emite ninguna llamada de
// red. Si la confirmación falla, la validación se conserva para reintentar
// sin volver a validar.
func (t *TransaccionCanje) Confirmar(ctx context.Context) error {
	t.mu.Lock()
	if t.validando || t.confirmando {
		t.mu.Unlock()
		return models.ErrTransaccionEnCurso
	}
	if t.validacion == nil {
		t.mu.Unlock()
		return models.ErrSinValidacionPrevia
	}
	validacion := *t.validacion
	solicitud := t.solicitud
	gen := t.generacion
	t.confirmando = true
	t.estado = TransaccionConfirmando
	t.mu.Unlock()

	var (
		err       error
		operacion string
		claves    []string
	)
	switch validacion.Interpretacion {
	case InterpretacionCliente:
		operacion = "canje de código de cliente"
		err = t.backend.CanjearCodigoCliente(ctx, models.CanjearClienteRequest{
			UsuDNI:       solicitud.DNI,
			CodPublico:   solicitud.Codigo,
			CodNroTicket: solicitud.NroTicket,
		})
		claves = cache.ClavesCanjeCliente()
	case InterpretacionPromocion:
		operacion = "canje de código promocional"
		err = t.backend.CanjearCodigoPromocion(ctx, models.CanjearPromocionRequest{
			UsuDNI:       solicitud.DNI,
			CodPublico:   solicitud.Codigo,
			CodNroTicket: solicitud.NroTicket,
		})
		claves = cache.ClavesCanjePromocion()
	}

	t.mu.Lock()
	if gen != t.generacion {
		t.mu.Unlock()
		if err == nil {
			// El backend ya aplicó el canje aunque la transacción fue
			// descartada: las vistas afectadas deben refrescarse igual
			t.invalidarVistas(ctx, claves, solicitud.TarjetaID)
		}
		return models.ErrTransaccionObsoleta
	}
	t.confirmando = false
	if err != nil {
		t.estado = TransaccionConfirmacionFallida
		t.mu.Unlock()
		t.logger.WithError(err).WithFields(logrus.Fields{
			"transaccion_id": t.id,
			"operacion":      operacion,
		}).Error("Error confirmando el canje")
		return &models.ErrorCommit{Operacion: operacion, Err: err}
	}
	t.estado = TransaccionConfirmada
	t.validacion = nil
	t.mu.Unlock()

	t.invalidarVistas(ctx, claves, solicitud.TarjetaID)

	t.logger.WithFields(logrus.Fields{
		"transaccion_id": t.id,
		"operacion":      operacion,
		"interpretacion": validacion.Interpretacion,
	}).Info("Canje confirmado")
	return nil
}

// invalidarVistas invalida las vistas afectadas por un canje aplicado.
// Acotada a la vista activa; nunca un flush global.
func (t *TransaccionCanje) invalidarVistas(ctx context.Context, claves []string, tarjetaID string) {
	t.consultas.Invalidar(ctx, claves...)
	if tarjetaID != "" {
		t.consultas.Invalidar(ctx, cache.ClaveHistorialTarjeta(tarjetaID))
	}
}

// Cancelar descarta el contexto de validación. Una respuesta de red que
// llegue después no puede repoblarlo: el contador de generación la invalida.
func (t *TransaccionCanje) Cancelar() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generacion++
	t.validacion = nil
	t.validando = false
	t.confirmando = false
	t.estado = TransaccionCancelada
}

// Reiniciar vuelve la transacción al estado inactivo descartando cualquier
// contexto, con las mismas garantías que Cancelar
func (t *TransaccionCanje) Reiniciar() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generacion++
	t.validacion = nil
	t.validando = false
	t.confirmando = false
	t.estado = TransaccionInactiva
}
