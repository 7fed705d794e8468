package services_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var errCodigoRechazado = errors.New("el código no corresponde a un canje elegible")

// fakeCanjeClient implementa backend.CanjeClient contando las llamadas por
// operación y delegando en los hooks configurados por cada test
type fakeCanjeClient struct {
	mu       sync.Mutex
	llamadas map[string]int

	validarCliente   func(codigo, dni string) (*models.ValidacionClienteRaw, error)
	validarPromocion func(codigo, dni string) (*models.ValidacionPromocionRaw, error)
	canjearCliente   func(req models.CanjearClienteRequest) error
	canjearPromocion func(req models.CanjearPromocionRequest) error
	canjearPuntos    func(req models.CanjearPuntosRequest) (*models.CanjePuntosResultado, error)

	historialEncargado func() ([]models.CanjeEncargadoRaw, error)

	ultimoCanjeCliente   models.CanjearClienteRequest
	ultimoCanjePromocion models.CanjearPromocionRequest
}

func newFakeCanjeClient() *fakeCanjeClient {
	return &fakeCanjeClient{llamadas: make(map[string]int)}
}

func (f *fakeCanjeClient) registrar(operacion string) {
	f.mu.Lock()
	f.llamadas[operacion]++
	f.mu.Unlock()
}

func (f *fakeCanjeClient) vecesLlamada(operacion string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.llamadas[operacion]
}

func (f *fakeCanjeClient) HistorialEncargado(ctx context.Context) ([]models.CanjeEncargadoRaw, error) {
	f.registrar("historial_encargado")
	if f.historialEncargado != nil {
		return f.historialEncargado()
	}
	return nil, nil
}

func (f *fakeCanjeClient) HistorialPromocion(ctx context.Context) ([]models.CanjePromocionRaw, error) {
	f.registrar("historial_promocion")
	return nil, nil
}

func (f *fakeCanjeClient) HistorialPuntos(ctx context.Context) ([]models.CanjePuntosRaw, error) {
	f.registrar("historial_puntos")
	return nil, nil
}

func (f *fakeCanjeClient) HistorialCliente(ctx context.Context) ([]models.CanjeClienteRaw, error) {
	f.registrar("historial_cliente")
	return nil, nil
}

func (f *fakeCanjeClient) HistorialTarjeta(ctx context.Context, tarjetaID string) ([]models.MovimientoTarjetaRaw, error) {
	f.registrar("historial_tarjeta")
	return nil, nil
}

func (f *fakeCanjeClient) ValidarCodigoCliente(ctx context.Context, codigo, dni string) (*models.ValidacionClienteRaw, error) {
	f.registrar("validar_cliente")
	if f.validarCliente != nil {
		return f.validarCliente(codigo, dni)
	}
	return nil, errCodigoRechazado
}

func (f *fakeCanjeClient) ValidarCodigoPromocion(ctx context.Context, codigo, dni string) (*models.ValidacionPromocionRaw, error) {
	f.registrar("validar_promocion")
	if f.validarPromocion != nil {
		return f.validarPromocion(codigo, dni)
	}
	return nil, errCodigoRechazado
}

func (f *fakeCanjeClient) CanjearCodigoCliente(ctx context.Context, req models.CanjearClienteRequest) error {
	f.registrar("canjear_cliente")
	f.mu.Lock()
	f.ultimoCanjeCliente = req
	f.mu.Unlock()
	if f.canjearCliente != nil {
		return f.canjearCliente(req)
	}
	return nil
}

func (f *fakeCanjeClient) CanjearCodigoPromocion(ctx context.Context, req models.CanjearPromocionRequest) error {
	f.registrar("canjear_promocion")
	f.mu.Lock()
	f.ultimoCanjePromocion = req
	f.mu.Unlock()
	if f.canjearPromocion != nil {
		return f.canjearPromocion(req)
	}
	return nil
}

func (f *fakeCanjeClient) CanjearCodigoPuntos(ctx context.Context, req models.CanjearPuntosRequest) (*models.CanjePuntosResultado, error) {
	f.registrar("canjear_puntos")
	if f.canjearPuntos != nil {
		return f.canjearPuntos(req)
	}
	return &models.CanjePuntosResultado{PuntosAsignados: 50, Sucursal: "Centro"}, nil
}

// fakeCuponClient implementa backend.CuponClient en el mismo estilo
type fakeCuponClient struct {
	mu       sync.Mutex
	llamadas map[string]int

	codigosPromocionales  func(estado string) ([]models.CodigoPromocionalRaw, error)
	codigosPuntos         func(estado string) ([]models.CodigoPuntosRaw, error)
	actualizarPromocional func(req models.ActualizarEstadoRequest) error
	actualizarPuntos      func(req models.ActualizarEstadoRequest) error

	ultimaActualizacion models.ActualizarEstadoRequest
}

func newFakeCuponClient() *fakeCuponClient {
	return &fakeCuponClient{llamadas: make(map[string]int)}
}

func (f *fakeCuponClient) registrar(operacion string) {
	f.mu.Lock()
	f.llamadas[operacion]++
	f.mu.Unlock()
}

func (f *fakeCuponClient) vecesLlamada(operacion string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.llamadas[operacion]
}

func (f *fakeCuponClient) CodigosPromocionales(ctx context.Context, estado string) ([]models.CodigoPromocionalRaw, error) {
	f.registrar("codigos_promocionales")
	if f.codigosPromocionales != nil {
		return f.codigosPromocionales(estado)
	}
	return nil, nil
}

func (f *fakeCuponClient) CodigosPuntos(ctx context.Context, estado string) ([]models.CodigoPuntosRaw, error) {
	f.registrar("codigos_puntos")
	if f.codigosPuntos != nil {
		return f.codigosPuntos(estado)
	}
	return nil, nil
}

func (f *fakeCuponClient) CrearCodigoPromocional(ctx context.Context, req models.CrearCodigoPromocionalRequest) error {
	f.registrar("crear_promocional")
	return nil
}

func (f *fakeCuponClient) CrearCodigoPuntos(ctx context.Context, req models.CrearCodigoPuntosRequest) error {
	f.registrar("crear_puntos")
	return nil
}

func (f *fakeCuponClient) ActualizarEstadoPromocional(ctx context.Context, req models.ActualizarEstadoRequest) error {
	f.registrar("actualizar_promocional")
	f.mu.Lock()
	f.ultimaActualizacion = req
	f.mu.Unlock()
	if f.actualizarPromocional != nil {
		return f.actualizarPromocional(req)
	}
	return nil
}

func (f *fakeCuponClient) ActualizarEstadoPuntos(ctx context.Context, req models.ActualizarEstadoRequest) error {
	f.registrar("actualizar_puntos")
	f.mu.Lock()
	f.ultimaActualizacion = req
	f.mu.Unlock()
	if f.actualizarPuntos != nil {
		return f.actualizarPuntos(req)
	}
	return nil
}

func loggerPrueba() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func cachePrueba() (*cache.Consultas, *cache.MemoriaStore) {
	store := cache.NewMemoriaStore()
	return cache.NewConsultas(store, time.Minute, loggerPrueba()), store
}

func sembrarClaves(t *testing.T, store *cache.MemoriaStore, claves ...string) {
	t.Helper()
	for _, clave := range claves {
		require.NoError(t, store.Set(context.Background(), clave, []byte(`[]`), 0))
	}
}

func claveExiste(t *testing.T, store *cache.MemoriaStore, clave string) bool {
	t.Helper()
	_, ok, err := store.Get(context.Background(), clave)
	require.NoError(t, err)
	return ok
}
