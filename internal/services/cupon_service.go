package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/puntoclub-labs/canje-service/internal/backend"
	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CuponService maneja la lógica de negocio de las definiciones de cupones:
// lectura unificada, creación y transiciones de estado
type CuponService struct {
	backend   backend.CuponClient
	consultas *cache.Consultas
	logger    *logrus.Logger
}

// NewCuponService crea una nueva instancia del servicio
func NewCuponService(cliente backend.CuponClient, consultas *cache.Consultas, logger *logrus.Logger) *CuponService {
	return &CuponService{
		backend:   cliente,
		consultas: consultas,
		logger:    logger,
	}
}

// CuponesUnificados obtiene y unifica las dos colecciones de cupones. A
// diferencia del historial de canjes, siempre se traen ambas: el filtro por
// tipo es de presentación. Cada colección se cachea bajo su propia clave y
// la falla de una no bloquea a la otra.
func (s *CuponService) CuponesUnificados(ctx context.Context) ([]models.CuponView, error) {
	promocionales, errPromocionales := cache.Obtener(ctx, s.consultas, cache.ClaveCuponesPromocionales,
		func(ctx context.Context) ([]models.CodigoPromocionalRaw, error) {
			return s.backend.CodigosPromocionales(ctx, "")
		})
	puntos, errPuntos := cache.Obtener(ctx, s.consultas, cache.ClaveCuponesPuntos,
		func(ctx context.Context) ([]models.CodigoPuntosRaw, error) {
			return s.backend.CodigosPuntos(ctx, "")
		})

	if errPromocionales != nil && errPuntos != nil {
		return nil, &models.ErrorFetch{Vista: "cupones", Err: errPromocionales}
	}
	if errPromocionales != nil {
		s.logger.WithError(errPromocionales).Warn("Error consultando códigos promocionales, se muestran solo los de puntos")
	}
	if errPuntos != nil {
		s.logger.WithError(errPuntos).Warn("Error consultando códigos de puntos, se muestran solo los promocionales")
	}

	return UnificarCupones(promocionales, puntos), nil
}

// Tabla arma la proyección lista para renderizar de los cupones. El filtro
// por tipo se aplica sobre el conjunto ya unificado.
func (s *CuponService) Tabla(ctx context.Context, tipo *models.TipoCupon, sesion *SesionTabla) (*models.TablaCupones, error) {
	cupones, err := s.CuponesUnificados(ctx)
	if err != nil {
		return nil, err
	}

	if tipo != nil {
		filtrados := make([]models.CuponView, 0, len(cupones))
		for _, cupon := range cupones {
			if cupon.Tipo == *tipo {
				filtrados = append(filtrados, cupon)
			}
		}
		cupones = filtrados
	}

	resultado := ProcesarTabla(cupones, OpcionesTabla[models.CuponView]{
		Busqueda:       sesion.Busqueda(),
		CamposBusqueda: CamposBusquedaCupon,
		Orden:          sesion.Orden(),
		ClaveOrden:     ClaveOrdenCupon,
		Pagina:         sesion.Pagina(),
		Tamanio:        sesion.Tamanio(),
	})

	return &models.TablaCupones{
		Tipo:      tipo,
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

// CrearPromocional crea una definición de código promocional e invalida la
// colección promocional
func (s *CuponService) CrearPromocional(ctx context.Context, req models.CrearCodigoPromocionalRequest) error {
	if err := s.backend.CrearCodigoPromocional(ctx, req); err != nil {
		return &models.ErrorCommit{Operacion: "creación de código promocional", Err: err}
	}
	s.consultas.Invalidar(ctx, cache.ClaveCuponesPromocionales)

	s.logger.WithField("cod_publico", req.CodPublico).Info("Código promocional creado")
	return nil
}

// CrearPuntos crea una definición de código de puntos e invalida la
// colección de puntos
func (s *CuponService) CrearPuntos(ctx context.Context, req models.CrearCodigoPuntosRequest) error {
	if err := s.backend.CrearCodigoPuntos(ctx, req); err != nil {
		return &models.ErrorCommit{Operacion: "creación de código de puntos", Err: err}
	}
	s.consultas.Invalidar(ctx, cache.ClaveCuponesPuntos)

	s.logger.WithField("cod_pun_publico", req.CodPunPublico).Info("Código de puntos creado")
	return nil
}

// ActualizarEstado cambia el estado de un cupón. La tabla de transiciones y
// la presencia del identificador interno se verifican antes de cualquier
// llamada de red; la violación de cualquiera de las dos falla de forma
// ruidosa. Los cambios de estado invalidan ambas colecciones de cupones sin
// condición: el origen del cupón no siempre se conoce en el punto de llamada
// y volver a consultarlas es barato.
func (s *CuponService) ActualizarEstado(ctx context.Context, cupon models.CuponView, destino models.EstadoCupon) error {
	if !destino.EsValido() {
		return fmt.Errorf("estado de cupón desconocido: %q", destino)
	}
	if !cupon.Estado.PuedeTransicionarA(destino) {
		return fmt.Errorf("%w: %s -> %s", models.ErrTransicionInvalida, cupon.Estado, destino)
	}
	if cupon.IDInterno == nil {
		return models.ErrSinIdentificadorInterno
	}

	req := models.ActualizarEstadoRequest{
		CodID:    *cupon.IDInterno,
		EstCodID: destino.EstadoID(),
	}

	var err error
	switch cupon.Tipo {
	case models.TipoCuponPromocional:
		err = s.backend.ActualizarEstadoPromocional(ctx, req)
	case models.TipoCuponPuntos:
		err = s.backend.ActualizarEstadoPuntos(ctx, req)
	default:
		return fmt.Errorf("tipo de cupón desconocido: %q", cupon.Tipo)
	}
	if err != nil {
		return &models.ErrorCommit{Operacion: "actualización de estado de cupón", Err: err}
	}

	s.consultas.Invalidar(ctx, cache.ClavesEstadoCupon()...)

	s.logger.WithFields(logrus.Fields{
		"cod_publico": cupon.CodPublico,
		"tipo":        cupon.Tipo,
		"estado":      destino,
	}).Info("Estado de cupón actualizado")
	return nil
}

// ErrCuponNoEncontrado indica que el código público no corresponde a ningún
// cupón conocido
var ErrCuponNoEncontrado = errors.New("cupón no encontrado")

// ActualizarEstadoPorCodigo resuelve el cupón por su código público dentro
// del conjunto unificado y aplica el cambio de estado
func (s *CuponService) ActualizarEstadoPorCodigo(ctx context.Context, codPublico string, destino models.EstadoCupon) error {
	cupones, err := s.CuponesUnificados(ctx)
	if err != nil {
		return err
	}
	for _, cupon := range cupones {
		if cupon.CodPublico == codPublico {
			return s.ActualizarEstado(ctx, cupon, destino)
		}
	}
	return fmt.Errorf("%w: %s", ErrCuponNoEncontrado, codPublico)
}
