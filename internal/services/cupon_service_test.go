package services_test

import (
	"context"
	"testing"

	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/puntoclub-labs/canje-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoCuponService(fake *fakeCuponClient) (*services.CuponService, *cache.MemoriaStore) {
	consultas, store := cachePrueba()
	return services.NewCuponService(fake, consultas, loggerPrueba()), store
}

func codigosPromocionalesPrueba(estado string) ([]models.CodigoPromocionalRaw, error) {
	return []models.CodigoPromocionalRaw{
		{CodID: 1, CodPublico: "DESCUENTO20", CodFechaEmision: fecha(2), EstNombre: "Activo", ProNombre: "Hamburguesa"},
	}, nil
}

func codigosPuntosPrueba(estado string) ([]models.CodigoPuntosRaw, error) {
	return []models.CodigoPuntosRaw{
		{CodPunID: 5, CodPunPublico: "PUNTOS50", CodPunFechaEmision: fecha(3), EstNombre: "Pausado", CodPunCantidad: 50},
	}, nil
}

func TestCuponesUnificadosSirveDesdeLaCache(t *testing.T) {
	fake := newFakeCuponClient()
	fake.codigosPromocionales = codigosPromocionalesPrueba
	fake.codigosPuntos = codigosPuntosPrueba
	servicio, _ := nuevoCuponService(fake)

	_, err := servicio.CuponesUnificados(context.Background())
	require.NoError(t, err)
	cupones, err := servicio.CuponesUnificados(context.Background())
	require.NoError(t, err)
	require.Len(t, cupones, 2)

	assert.Equal(t, 1, fake.vecesLlamada("codigos_promocionales"))
	assert.Equal(t, 1, fake.vecesLlamada("codigos_puntos"))
}

func TestCuponesUnificadosToleraUnaColeccionCaida(t *testing.T) {
	fake := newFakeCuponClient()
	fake.codigosPromocionales = func(string) ([]models.CodigoPromocionalRaw, error) {
		return nil, errCodigoRechazado
	}
	fake.codigosPuntos = codigosPuntosPrueba
	servicio, _ := nuevoCuponService(fake)

	cupones, err := servicio.CuponesUnificados(context.Background())
	require.NoError(t, err)
	require.Len(t, cupones, 1)
	assert.Equal(t, models.TipoCuponPuntos, cupones[0].Tipo)
}

func TestCuponesUnificadosFallaSiCaenAmbas(t *testing.T) {
	fake := newFakeCuponClient()
	fake.codigosPromocionales = func(string) ([]models.CodigoPromocionalRaw, error) {
		return nil, errCodigoRechazado
	}
	fake.codigosPuntos = func(string) ([]models.CodigoPuntosRaw, error) {
		return nil, errCodigoRechazado
	}
	servicio, _ := nuevoCuponService(fake)

	_, err := servicio.CuponesUnificados(context.Background())
	require.Error(t, err)
	var errFetch *models.ErrorFetch
	assert.ErrorAs(t, err, &errFetch)
}

func TestTablaDeCuponesFiltraPorTipo(t *testing.T) {
	fake := newFakeCuponClient()
	fake.codigosPromocionales = codigosPromocionalesPrueba
	fake.codigosPuntos = codigosPuntosPrueba
	servicio, _ := nuevoCuponService(fake)

	tipo := models.TipoCuponPromocional
	tabla, err := servicio.Tabla(context.Background(), &tipo, services.NewSesionTabla())
	require.NoError(t, err)
	require.Len(t, tabla.Registros, 1)
	assert.Equal(t, "DESCUENTO20", tabla.Registros[0].CodPublico)
	assert.Equal(t, 1, tabla.Total)

	// Sin filtro se ven ambas colecciones
	tabla, err = servicio.Tabla(context.Background(), nil, services.NewSesionTabla())
	require.NoError(t, err)
	assert.Equal(t, 2, tabla.Total)
}

func TestCrearPromocionalInvalidaSoloSuColeccion(t *testing.T) {
	fake := newFakeCuponClient()
	servicio, store := nuevoCuponService(fake)
	sembrarClaves(t, store, cache.ClaveCuponesPromocionales, cache.ClaveCuponesPuntos)

	err := servicio.CrearPromocional(context.Background(), models.CrearCodigoPromocionalRequest{CodPublico: "NUEVO10"})
	require.NoError(t, err)

	assert.False(t, claveExiste(t, store, cache.ClaveCuponesPromocionales))
	assert.True(t, claveExiste(t, store, cache.ClaveCuponesPuntos))
}

func TestActualizarEstadoCuponActivo(t *testing.T) {
	fake := newFakeCuponClient()
	servicio, store := nuevoCuponService(fake)
	sembrarClaves(t, store, cache.ClaveCuponesPromocionales, cache.ClaveCuponesPuntos)

	id := int64(7)
	cupon := models.CuponView{
		IDInterno:  &id,
		Tipo:       models.TipoCuponPromocional,
		CodPublico: "DESCUENTO20",
		Estado:     models.EstadoCuponActivo,
	}

	err := servicio.ActualizarEstado(context.Background(), cupon, models.EstadoCuponPausado)
	require.NoError(t, err)

	assert.Equal(t, 1, fake.vecesLlamada("actualizar_promocional"))
	assert.Equal(t, 0, fake.vecesLlamada("actualizar_puntos"))
	assert.Equal(t, int64(7), fake.ultimaActualizacion.CodID)
	assert.Equal(t, models.EstadoCuponPausado.EstadoID(), fake.ultimaActualizacion.EstCodID)

	// Un cambio de estado invalida ambas colecciones sin condición
	assert.False(t, claveExiste(t, store, cache.ClaveCuponesPromocionales))
	assert.False(t, claveExiste(t, store, cache.ClaveCuponesPuntos))
}

func TestActualizarEstadoCuponCanceladoEsTerminal(t *testing.T) {
	fake := newFakeCuponClient()
	servicio, _ := nuevoCuponService(fake)

	id := int64(7)
	cupon := models.CuponView{
		IDInterno:  &id,
		Tipo:       models.TipoCuponPromocional,
		CodPublico: "DESCUENTO20",
		Estado:     models.EstadoCuponCancelado,
	}

	err := servicio.ActualizarEstado(context.Background(), cupon, models.EstadoCuponActivo)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransicionInvalida)

	// La transición inválida se rechaza antes de tocar la red
	assert.Equal(t, 0, fake.vecesLlamada("actualizar_promocional"))
}

func TestActualizarEstadoSinIdentificadorInterno(t *testing.T) {
	fake := newFakeCuponClient()
	servicio, _ := nuevoCuponService(fake)

	cupon := models.CuponView{
		Tipo:       models.TipoCuponPuntos,
		CodPublico: "PUNTOS50",
		Estado:     models.EstadoCuponActivo,
	}

	err := servicio.ActualizarEstado(context.Background(), cupon, models.EstadoCuponPausado)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSinIdentificadorInterno)
	assert.ErrorIs(t, err, models.ErrPrecondicion)
	assert.Equal(t, 0, fake.vecesLlamada("actualizar_puntos"))
}

func TestActualizarEstadoCuponDePuntos(t *testing.T) {
	fake := newFakeCuponClient()
	servicio, _ := nuevoCuponService(fake)

	id := int64(5)
	cupon := models.CuponView{
		IDInterno:  &id,
		Tipo:       models.TipoCuponPuntos,
		CodPublico: "PUNTOS50",
		Estado:     models.EstadoCuponPausado,
	}

	require.NoError(t, servicio.ActualizarEstado(context.Background(), cupon, models.EstadoCuponActivo))
	assert.Equal(t, 1, fake.vecesLlamada("actualizar_puntos"))
	assert.Equal(t, 0, fake.vecesLlamada("actualizar_promocional"))
}

func TestActualizarEstadoPorCodigo(t *testing.T) {
	fake := newFakeCuponClient()
	fake.codigosPromocionales = codigosPromocionalesPrueba
	fake.codigosPuntos = codigosPuntosPrueba
	servicio, _ := nuevoCuponService(fake)

	err := servicio.ActualizarEstadoPorCodigo(context.Background(), "DESCUENTO20", models.EstadoCuponPausado)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.vecesLlamada("actualizar_promocional"))

	err = servicio.ActualizarEstadoPorCodigo(context.Background(), "NOEXISTE", models.EstadoCuponPausado)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrCuponNoEncontrado)
}
