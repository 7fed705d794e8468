package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/puntoclub-labs/canje-service/internal/cache"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/puntoclub-labs/canje-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevaTransaccion(fake *fakeCanjeClient, detallado bool) (*services.TransaccionCanje, *cache.MemoriaStore) {
	consultas, store := cachePrueba()
	return services.NewTransaccionCanje(fake, consultas, loggerPrueba(), detallado), store
}

func solicitudPrueba() services.SolicitudCanje {
	return services.SolicitudCanje{Codigo: "ABC123", DNI: "30111222", NroTicket: "T-0099"}
}

func validacionClienteOK(codigo, dni string) (*models.ValidacionClienteRaw, error) {
	producto := "Hamburguesa"
	return &models.ValidacionClienteRaw{CodigoCliente: codigo, UsuDNI: dni, ProNombre: &producto}, nil
}

func validacionPromocionOK(codigo, dni string) (*models.ValidacionPromocionRaw, error) {
	codID := int64(42)
	return &models.ValidacionPromocionRaw{CodigoPromocion: codigo, UsuDNI: dni, CodID: &codID}, nil
}

func TestValidarInterpretacionCliente(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	tx, _ := nuevaTransaccion(fake, false)

	err := tx.Validar(context.Background(), solicitudPrueba())
	require.NoError(t, err)

	assert.Equal(t, services.TransaccionValidadaCliente, tx.Estado())
	validacion := tx.ValidacionActual()
	require.NotNil(t, validacion)
	assert.Equal(t, services.InterpretacionCliente, validacion.Interpretacion)
	require.NotNil(t, validacion.Cliente)
	assert.Nil(t, validacion.Promocion)

	// Si la interpretación de cliente valida, la promocional ni se consulta
	assert.Equal(t, 1, fake.vecesLlamada("validar_cliente"))
	assert.Equal(t, 0, fake.vecesLlamada("validar_promocion"))
}

func TestValidarFallbackPromocion(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarPromocion = validacionPromocionOK
	tx, _ := nuevaTransaccion(fake, false)

	err := tx.Validar(context.Background(), solicitudPrueba())
	require.NoError(t, err)

	assert.Equal(t, services.TransaccionValidadaPromocion, tx.Estado())
	validacion := tx.ValidacionActual()
	require.NotNil(t, validacion)
	assert.Equal(t, services.InterpretacionPromocion, validacion.Interpretacion)
	require.NotNil(t, validacion.Promocion)
	assert.Nil(t, validacion.Cliente)

	// La promocional se intenta solo después del rechazo de cliente
	assert.Equal(t, 1, fake.vecesLlamada("validar_cliente"))
	assert.Equal(t, 1, fake.vecesLlamada("validar_promocion"))
}

func TestValidarAmbasInterpretacionesFallan(t *testing.T) {
	fake := newFakeCanjeClient()
	tx, _ := nuevaTransaccion(fake, false)

	err := tx.Validar(context.Background(), solicitudPrueba())
	require.Error(t, err)

	var errValidacion *models.ErrorValidacion
	require.ErrorAs(t, err, &errValidacion)
	// Un único error combinado, sin filtrar las causas internas
	assert.Equal(t, "el código ingresado no es válido", errValidacion.Error())

	assert.Equal(t, services.TransaccionValidacionFallida, tx.Estado())
	assert.Nil(t, tx.ValidacionActual())
}

func TestValidarErrorDetallado(t *testing.T) {
	fake := newFakeCanjeClient()
	tx, _ := nuevaTransaccion(fake, true)

	err := tx.Validar(context.Background(), solicitudPrueba())
	require.Error(t, err)

	var errValidacion *models.ErrorValidacion
	require.ErrorAs(t, err, &errValidacion)
	assert.Contains(t, errValidacion.Error(), errCodigoRechazado.Error())
}

func TestValidarRechazaSolicitudIncompleta(t *testing.T) {
	fake := newFakeCanjeClient()
	tx, _ := nuevaTransaccion(fake, false)

	err := tx.Validar(context.Background(), services.SolicitudCanje{Codigo: "ABC123"})
	require.Error(t, err)

	// La solicitud inválida se rechaza antes de tocar la red
	assert.Equal(t, 0, fake.vecesLlamada("validar_cliente"))
	assert.Equal(t, 0, fake.vecesLlamada("validar_promocion"))
	assert.Equal(t, services.TransaccionInactiva, tx.Estado())
}

func TestRevalidarReemplazaInterpretacion(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	tx, _ := nuevaTransaccion(fake, false)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))
	require.Equal(t, services.TransaccionValidadaCliente, tx.Estado())

	// El mismo código ahora solo valida como promocional
	fake.validarCliente = nil
	fake.validarPromocion = validacionPromocionOK
	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))

	validacion := tx.ValidacionActual()
	require.NotNil(t, validacion)
	// Poblar una interpretación descarta la anterior
	assert.Equal(t, services.InterpretacionPromocion, validacion.Interpretacion)
	assert.Nil(t, validacion.Cliente)
	require.NotNil(t, validacion.Promocion)
}

func TestConfirmarSinValidacionPrevia(t *testing.T) {
	fake := newFakeCanjeClient()
	tx, _ := nuevaTransaccion(fake, false)

	err := tx.Confirmar(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSinValidacionPrevia)
	assert.ErrorIs(t, err, models.ErrPrecondicion)

	// La precondición se verifica antes de emitir cualquier llamada
	assert.Equal(t, 0, fake.vecesLlamada("canjear_cliente"))
	assert.Equal(t, 0, fake.vecesLlamada("canjear_promocion"))
}

func TestConfirmarCanjeCliente(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	tx, store := nuevaTransaccion(fake, false)
	sembrarClaves(t, store,
		cache.ClaveCanjesEncargado,
		cache.ClaveCanjesPromocion,
		cache.ClaveCanjesPuntos,
		cache.ClaveCanjesCliente,
	)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))
	require.NoError(t, tx.Confirmar(context.Background()))

	assert.Equal(t, services.TransaccionConfirmada, tx.Estado())
	assert.Nil(t, tx.ValidacionActual())

	// El canje lleva exactamente la terna enviada por el usuario
	assert.Equal(t, 1, fake.vecesLlamada("canjear_cliente"))
	assert.Equal(t, 0, fake.vecesLlamada("canjear_promocion"))
	assert.Equal(t, "30111222", fake.ultimoCanjeCliente.UsuDNI)
	assert.Equal(t, "ABC123", fake.ultimoCanjeCliente.CodPublico)
	assert.Equal(t, "T-0099", fake.ultimoCanjeCliente.CodNroTicket)

	// Invalidación acotada: caen encargado y cliente, el resto sobrevive
	assert.False(t, claveExiste(t, store, cache.ClaveCanjesEncargado))
	assert.False(t, claveExiste(t, store, cache.ClaveCanjesCliente))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesPromocion))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesPuntos))
}

func TestConfirmarCanjePromocion(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarPromocion = validacionPromocionOK
	tx, store := nuevaTransaccion(fake, false)
	sembrarClaves(t, store,
		cache.ClaveCanjesEncargado,
		cache.ClaveCanjesPromocion,
		cache.ClaveCanjesPuntos,
		cache.ClaveCanjesCliente,
	)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))
	require.NoError(t, tx.Confirmar(context.Background()))

	assert.Equal(t, 1, fake.vecesLlamada("canjear_promocion"))
	assert.Equal(t, 0, fake.vecesLlamada("canjear_cliente"))
	assert.Equal(t, "ABC123", fake.ultimoCanjePromocion.CodPublico)

	assert.False(t, claveExiste(t, store, cache.ClaveCanjesPromocion))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesEncargado))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesCliente))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesPuntos))
}

func TestConfirmarInvalidaHistorialDeTarjeta(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	tx, store := nuevaTransaccion(fake, false)

	claveTarjeta := cache.ClaveHistorialTarjeta("TARJ-9")
	sembrarClaves(t, store, claveTarjeta)

	solicitud := solicitudPrueba()
	solicitud.TarjetaID = "TARJ-9"
	require.NoError(t, tx.Validar(context.Background(), solicitud))
	require.NoError(t, tx.Confirmar(context.Background()))

	assert.False(t, claveExiste(t, store, claveTarjeta))
}

func TestConfirmarFallidoConservaValidacion(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	fallar := true
	fake.canjearCliente = func(models.CanjearClienteRequest) error {
		if fallar {
			return errors.New("el backend rechazó el canje")
		}
		return nil
	}
	tx, store := nuevaTransaccion(fake, false)
	sembrarClaves(t, store, cache.ClaveCanjesEncargado)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))

	err := tx.Confirmar(context.Background())
	require.Error(t, err)
	var errCommit *models.ErrorCommit
	assert.ErrorAs(t, err, &errCommit)
	assert.Equal(t, services.TransaccionConfirmacionFallida, tx.Estado())

	// La validación se conserva y no se invalidó ninguna vista
	assert.NotNil(t, tx.ValidacionActual())
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesEncargado))

	// Reintento sin volver a validar
	fallar = false
	require.NoError(t, tx.Confirmar(context.Background()))
	assert.Equal(t, services.TransaccionConfirmada, tx.Estado())
	assert.Equal(t, 1, fake.vecesLlamada("validar_cliente"))
	assert.Equal(t, 2, fake.vecesLlamada("canjear_cliente"))
}

func TestCancelarDescartaRespuestaTardia(t *testing.T) {
	fake := newFakeCanjeClient()
	bloqueo := make(chan struct{})
	fake.validarCliente = func(codigo, dni string) (*models.ValidacionClienteRaw, error) {
		<-bloqueo
		return validacionClienteOK(codigo, dni)
	}
	tx, _ := nuevaTransaccion(fake, false)

	resultado := make(chan error, 1)
	go func() {
		resultado <- tx.Validar(context.Background(), solicitudPrueba())
	}()

	// Esperar a que la validación esté en vuelo antes de cancelar
	require.Eventually(t, tx.EstaValidando, time.Second, time.Millisecond)
	tx.Cancelar()
	close(bloqueo)

	err := <-resultado
	assert.ErrorIs(t, err, models.ErrTransaccionObsoleta)

	// La respuesta tardía no repobló el contexto descartado
	assert.Nil(t, tx.ValidacionActual())
	assert.Equal(t, services.TransaccionCancelada, tx.Estado())
}

func TestCancelarDuranteConfirmacionInvalidaLasVistas(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	bloqueo := make(chan struct{})
	fake.canjearCliente = func(models.CanjearClienteRequest) error {
		<-bloqueo
		return nil
	}
	tx, store := nuevaTransaccion(fake, false)
	sembrarClaves(t, store,
		cache.ClaveCanjesEncargado,
		cache.ClaveCanjesCliente,
		cache.ClaveCanjesPromocion,
	)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))

	resultado := make(chan error, 1)
	go func() {
		resultado <- tx.Confirmar(context.Background())
	}()
	require.Eventually(t, tx.EstaConfirmando, time.Second, time.Millisecond)
	tx.Cancelar()
	close(bloqueo)

	err := <-resultado
	assert.ErrorIs(t, err, models.ErrTransaccionObsoleta)

	// El backend ya aplicó el canje: las vistas afectadas se refrescan aunque
	// la transacción haya sido descartada
	assert.False(t, claveExiste(t, store, cache.ClaveCanjesEncargado))
	assert.False(t, claveExiste(t, store, cache.ClaveCanjesCliente))
	assert.True(t, claveExiste(t, store, cache.ClaveCanjesPromocion))
}

func TestRechazaOperacionesConcurrentes(t *testing.T) {
	fake := newFakeCanjeClient()
	bloqueo := make(chan struct{})
	fake.validarCliente = func(codigo, dni string) (*models.ValidacionClienteRaw, error) {
		<-bloqueo
		return validacionClienteOK(codigo, dni)
	}
	tx, _ := nuevaTransaccion(fake, false)

	resultado := make(chan error, 1)
	go func() {
		resultado <- tx.Validar(context.Background(), solicitudPrueba())
	}()
	require.Eventually(t, tx.EstaValidando, time.Second, time.Millisecond)

	// Con una validación en vuelo toda otra operación se rechaza
	assert.ErrorIs(t, tx.Validar(context.Background(), solicitudPrueba()), models.ErrTransaccionEnCurso)
	assert.ErrorIs(t, tx.Confirmar(context.Background()), models.ErrTransaccionEnCurso)

	close(bloqueo)
	require.NoError(t, <-resultado)
	assert.Equal(t, services.TransaccionValidadaCliente, tx.Estado())
}

func TestReiniciarVuelveAInactiva(t *testing.T) {
	fake := newFakeCanjeClient()
	fake.validarCliente = validacionClienteOK
	tx, _ := nuevaTransaccion(fake, false)

	require.NoError(t, tx.Validar(context.Background(), solicitudPrueba()))
	tx.Reiniciar()

	assert.Equal(t, services.TransaccionInactiva, tx.Estado())
	assert.Nil(t, tx.ValidacionActual())

	assert.ErrorIs(t, tx.Confirmar(context.Background()), models.ErrSinValidacionPrevia)
}
