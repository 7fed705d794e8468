package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puntoclub-labs/canje-service/internal/backend"
	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CanjeService maneja la lógica de negocio del historial de canjes: el
// camino de lectura (fetch cacheado por vista, proyección unificada y
// procesamiento de tabla) y el ciclo de vida de las transacciones de canje
type CanjeService struct {
	backend   backend.CanjeClient
	consultas *cache.Consultas
	logger    *logrus.Logger
	detallado bool

	mu            sync.Mutex
	transacciones map[uuid.UUID]*TransaccionCanje
}

// NewCanjeService crea una nueva instancia del servicio
func NewCanjeService(cliente backend.CanjeClient, consultas *cache.Consultas, logger *logrus.Logger, detalleErrores bool) *CanjeService {
	return &CanjeService{
		backend:       cliente,
		consultas:     consultas,
		logger:        logger,
		detallado:     detalleErrores,
		transacciones: make(map[uuid.UUID]*TransaccionCanje),
	}
}

// HistorialUnificado obtiene la colección de la vista activa, la proyecta a
// la forma canónica y la ordena por fecha descendente. Solo se consulta la
// colección de la vista seleccionada: las vistas son mutuamente excluyentes.
func (s *CanjeService) HistorialUnificado(ctx context.Context, vista models.TipoCanje) ([]models.CanjeUnificado, error) {
	var (
		canjes []models.CanjeUnificado
		err    error
	)

	switch vista {
	case models.TipoCanjeEncargado:
		var crudos []models.CanjeEncargadoRaw
		crudos, err = cache.Obtener(ctx, s.consultas, cache.ClaveCanjesEncargado, s.backend.HistorialEncargado)
		canjes = ProyectarEncargados(crudos)
	case models.TipoCanjePromocion:
		var crudos []models.CanjePromocionRaw
		crudos, err = cache.Obtener(ctx, s.consultas, cache.ClaveCanjesPromocion, s.backend.HistorialPromocion)
		canjes = ProyectarPromociones(crudos)
	case models.TipoCanjePuntos:
		var crudos []models.CanjePuntosRaw
		crudos, err = cache.Obtener(ctx, s.consultas, cache.ClaveCanjesPuntos, s.backend.HistorialPuntos)
		canjes = ProyectarPuntos(crudos)
	case models.TipoCanjeCliente:
		var crudos []models.CanjeClienteRaw
		crudos, err = cache.Obtener(ctx, s.consultas, cache.ClaveCanjesCliente, s.backend.HistorialCliente)
		canjes = ProyectarClientes(crudos)
	default:
		return nil, fmt.Errorf("vista de canjes desconocida: %q", vista)
	}

	if err != nil {
		return nil, &models.ErrorFetch{Vista: string(vista), Err: err}
	}

	OrdenarCanjes(canjes)
	return canjes, nil
}

// Tabla arma la proyección lista para renderizar de la vista activa según el
// estado de la sesión de tabla
func (s *CanjeService) Tabla(ctx context.Context, vista models.TipoCanje, sesion *SesionTabla) (*models.TablaCanjes, error) {
	canjes, err := s.HistorialUnificado(ctx, vista)
	if err != nil {
		return nil, err
	}

	resultado := ProcesarTabla(canjes, OpcionesTabla[models.CanjeUnificado]{
		Busqueda:       sesion.Busqueda(),
		CamposBusqueda: CamposBusquedaCanje,
		Orden:          sesion.Orden(),
		ClaveOrden:     ClaveOrdenCanje,
		Pagina:         sesion.Pagina(),
		Tamanio:        sesion.Tamanio(),
	})

	return &models.TablaCanjes{
		Vista:     vista,
		Registros: resultado.Registros,
		EstadoTabla: models.EstadoTabla{
			Pagina:       sesion.Pagina(),
			Tamanio:      sesion.Tamanio(),
			Total:        resultado.Total,
			TotalPaginas: resultado.TotalPaginas,
			Busqueda:     sesion.Busqueda(),
			Orden:        sesion.Orden(),
		},
	}, nil
}

// HistorialTarjeta obtiene el historial de movimientos de una tarjeta, con
// su propia entrada de caché
func (s *CanjeService) HistorialTarjeta(ctx context.Context, tarjetaID string) ([]models.MovimientoTarjetaRaw, error) {
	clave := cache.ClaveHistorialTarjeta(tarjetaID)
	movimientos, err := cache.Obtener(ctx, s.consultas, clave, func(ctx context.Context) ([]models.MovimientoTarjetaRaw, error) {
		return s.backend.HistorialTarjeta(ctx, tarjetaID)
	})
	if err != nil {
		return nil, &models.ErrorFetch{Vista: "tarjeta", Err: err}
	}
	return movimientos, nil
}

// CanjearPuntos canjea un código de puntos. No participa de la transacción
// de dos fases: el código de puntos no es ambiguo ni tiene ticket. Al
// confirmar se invalida la vista de puntos y, si hay una tarjeta en
// contexto, el historial de esa tarjeta.
func (s *CanjeService) CanjearPuntos(ctx context.Context, codigo, tarjetaID string) (*models.CanjePuntosResultado, error) {
	resultado, err := s.backend.CanjearCodigoPuntos(ctx, models.CanjearPuntosRequest{CodPunPublico: codigo})
	if err != nil {
		return nil, &models.ErrorCommit{Operacion: "canje de código de puntos", Err: err}
	}

	s.consultas.Invalidar(ctx, cache.ClavesCanjePuntos(tarjetaID)...)

	s.logger.WithFields(logrus.Fields{
		"puntos_asignados": resultado.PuntosAsignados,
		"sucursal":         resultado.Sucursal,
	}).Info("Código de puntos canjeado")
	return resultado, nil
}

// NuevaTransaccion crea y registra una transacción de canje
func (s *CanjeService) NuevaTransaccion() *TransaccionCanje {
	transaccion := NewTransaccionCanje(s.backend, s.consultas, s.logger, s.detallado)
	s.mu.Lock()
	s.transacciones[transaccion.ID()] = transaccion
	s.mu.Unlock()
	return transaccion
}

// Transaccion busca una transacción registrada por su identificador
func (s *CanjeService) Transaccion(id uuid.UUID) (*TransaccionCanje, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transaccion, ok := s.transacciones[id]
	return transaccion, ok
}

// ErrTransaccionNoEncontrada indica que el identificador no corresponde a
// ninguna transacción registrada
var ErrTransaccionNoEncontrada = errors.New("transacción no encontrada")

// ConfirmarTransaccion confirma la transacción registrada bajo el
// identificador. Una confirmación exitosa quita la transacción del registro:
// una transacción terminada no admite más operaciones y retenerla solo
// acumula memoria. Las confirmaciones fallidas permanecen registradas para
// poder reintentar.
func (s *CanjeService) ConfirmarTransaccion(ctx context.Context, id uuid.UUID) (*TransaccionCanje, error) {
	s.mu.Lock()
	transaccion, ok := s.transacciones[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrTransaccionNoEncontrada
	}

	if err := transaccion.Confirmar(ctx); err != nil {
		return transaccion, err
	}

	s.mu.Lock()
	delete(s.transacciones, id)
	s.mu.Unlock()
	return transaccion, nil
}

// CerrarTransaccion cancela la transacción y la quita del registro. Es la
// operación que corresponde al cierre del diálogo de canje.
func (s *CanjeService) CerrarTransaccion(id uuid.UUID) bool {
	s.mu.Lock()
	transaccion, ok := s.transacciones[id]
	if ok {
		delete(s.transacciones, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	transaccion.Cancelar()
	return true
}
