package backend

import (
	"context"

	"github.com/puntoclub-labs/canje-service/internal/models"
)

// CanjeClient define el contrato con el backend de fidelización para el
// historial y las operaciones de canje. Solo importan las formas de
// request/response: la implementación concreta es un colaborador externo.
type CanjeClient interface {
	HistorialEncargado(ctx context.Context) ([]models.CanjeEncargadoRaw, error)
	HistorialPromocion(ctx context.Context) ([]models.CanjePromocionRaw, error)
	HistorialPuntos(ctx context.Context) ([]models.CanjePuntosRaw, error)
	HistorialCliente(ctx context.Context) ([]models.CanjeClienteRaw, error)
	HistorialTarjeta(ctx context.Context, tarjetaID string) ([]models.MovimientoTarjetaRaw, error)

	ValidarCodigoCliente(ctx context.Context, codigo, dni string) (*models.ValidacionClienteRaw, error)
	ValidarCodigoPromocion(ctx context.Context, codigo, dni string) (*models.ValidacionPromocionRaw, error)

	CanjearCodigoCliente(ctx context.Context, req models.CanjearClienteRequest) error
	CanjearCodigoPromocion(ctx context.Context, req models.CanjearPromocionRequest) error
	CanjearCodigoPuntos(ctx context.Context, req models.CanjearPuntosRequest) (*models.CanjePuntosResultado, error)
}

// CuponClient define el contrato con el backend para la gestión de cupones
type CuponClient interface {
	CodigosPromocionales(ctx context.Context, estado string) ([]models.CodigoPromocionalRaw, error)
	CodigosPuntos(ctx context.Context, estado string) ([]models.CodigoPuntosRaw, error)

	CrearCodigoPromocional(ctx context.Context, req models.CrearCodigoPromocionalRequest) error
	CrearCodigoPuntos(ctx context.Context, req models.CrearCodigoPuntosRequest) error

	ActualizarEstadoPromocional(ctx context.Context, req models.ActualizarEstadoRequest) error
	ActualizarEstadoPuntos(ctx context.Context, req models.ActualizarEstadoRequest) error
}
