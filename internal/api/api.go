package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/puntoclub-labs/canje-service/internal/services"
	"github.com/sirupsen/logrus"
)

// API maneja todos los endpoints de la API
type API struct {
	canjeService *services.CanjeService
	cuponService *services.CuponService
	logger       *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(canjeService *services.CanjeService, cuponService *services.CuponService, logger *logrus.Logger) *API {
	return &API{
		canjeService: canjeService,
		cuponService: cuponService,
		logger:       logger,
	}
}

// sesionDesdeQuery arma la sesión de tabla desde los parámetros de la
// request. La página se aplica al final para que una página pedida
// explícitamente no quede pisada por los reseteos de orden/búsqueda/tamaño.
func sesionDesdeQuery(c *gin.Context) *services.SesionTabla {
	sesion := services.NewSesionTabla()

	if tamanio, err := strconv.Atoi(c.Query("tamanio")); err == nil {
		sesion.SetTamanio(tamanio)
	}
	if campo := c.Query("orden"); campo != "" {
		direccion := models.OrdenAscendente
		if c.Query("direccion") == string(models.OrdenDescendente) {
			direccion = models.OrdenDescendente
		}
		sesion.SetOrden(campo, direccion)
	}
	if busqueda := c.Query("busqueda"); busqueda != "" {
		sesion.SetBusqueda(busqueda)
	}
	if pagina, err := strconv.Atoi(c.Query("pagina")); err == nil {
		sesion.SetPagina(pagina)
	}
	return sesion
}

// GetCanjes retorna la tabla unificada del historial de canjes de una vista
func (api *API) GetCanjes(c *gin.Context) {
	vista := models.TipoCanje(c.Query("vista"))
	if !vista.EsValido() {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Vista inválida", []models.ErrorDetail{
			{Field: "vista", Issue: "Debe ser encargado, promocion, puntos o cliente"},
		}))
		return
	}

	tabla, err := api.canjeService.Tabla(c.Request.Context(), vista, sesionDesdeQuery(c))
	if err != nil {
		api.logger.WithError(err).Error("Error consultando el historial de canjes")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError("Error consultando el historial de canjes"))
		return
	}

	c.JSON(http.StatusOK, tabla)
}

// GetCupones retorna la tabla unificada de cupones
func (api *API) GetCupones(c *gin.Context) {
	var tipo *models.TipoCupon
	if valor := c.Query("tipo"); valor != "" {
		candidato := models.TipoCupon(valor)
		if !candidato.EsValido() {
			c.JSON(http.StatusBadRequest, models.NewValidationError("Tipo de cupón inválido", []models.ErrorDetail{
				{Field: "tipo", Issue: "Debe ser promocional o puntos"},
			}))
			return
		}
		tipo = &candidato
	}

	tabla, err := api.cuponService.Tabla(c.Request.Context(), tipo, sesionDesdeQuery(c))
	if err != nil {
		api.logger.WithError(err).Error("Error consultando los cupones")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError("Error consultando los cupones"))
		return
	}

	c.JSON(http.StatusOK, tabla)
}

// ValidarCanjeRequest es el cuerpo de inicio de una transacción de canje
type ValidarCanjeRequest struct {
	Codigo    string `json:"codigo" binding:"required"`
	DNI       string `json:"dni" binding:"required"`
	NroTicket string `json:"nro_ticket"`
	TarjetaID string `json:"tarjeta_id"`
}

// TransaccionResponse es la respuesta del ciclo de vida de una transacción
type TransaccionResponse struct {
	TransaccionID string                     `json:"transaccion_id"`
	Estado        services.EstadoTransaccion `json:"estado"`
	Validacion    *services.Validacion       `json:"validacion,omitempty"`
	IsValidating  bool                       `json:"is_validating"`
	IsCommitting  bool                       `json:"is_committing"`
}

func respuestaTransaccion(transaccion *services.TransaccionCanje) TransaccionResponse {
	return TransaccionResponse{
		TransaccionID: transaccion.ID().String(),
		Estado:        transaccion.Estado(),
		Validacion:    transaccion.ValidacionActual(),
		IsValidating:  transaccion.EstaValidando(),
		IsCommitting:  transaccion.EstaConfirmando(),
	}
}

// ValidarCanje inicia una transacción y valida el código contra las dos
// interpretaciones
func (api *API) ValidarCanje(c *gin.Context) {
	var req ValidarCanjeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error parseando la solicitud de validación")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	transaccion := api.canjeService.NuevaTransaccion()
	err := transaccion.Validar(c.Request.Context(), services.SolicitudCanje{
		Codigo:    req.Codigo,
		DNI:       req.DNI,
		NroTicket: req.NroTicket,
		TarjetaID: req.TarjetaID,
	})
	if err != nil {
		var errValidacion *models.ErrorValidacion
		if errors.As(err, &errValidacion) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"transaccion_id": transaccion.ID().String(),
				"estado":         transaccion.Estado(),
				"error":          models.NewErrorResponse(models.ErrorCodeInvalidRequest, errValidacion.Error()).Error,
			})
			return
		}
		api.logger.WithError(err).Error("Error validando el código")
		c.JSON(http.StatusBadRequest, models.NewValidationError(err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, respuestaTransaccion(transaccion))
}

// TransaccionRequest referencia una transacción existente
type TransaccionRequest struct {
	TransaccionID string `json:"transaccion_id" binding:"required"`
}

// ConfirmarCanje confirma la transacción contra la interpretación validada.
// Una confirmación exitosa cierra la transacción: desaparece del registro.
func (api *API) ConfirmarCanje(c *gin.Context) {
	var req TransaccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "transaccion_id", Issue: "Requerido"},
		}))
		return
	}
	id, err := uuid.Parse(req.TransaccionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Identificador de transacción inválido", []models.ErrorDetail{
			{Field: "transaccion_id", Issue: "Debe ser un UUID válido"},
		}))
		return
	}

	transaccion, err := api.canjeService.ConfirmarTransaccion(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransaccionNoEncontrada):
			c.JSON(http.StatusNotFound, models.NewNotFoundError("Transacción no encontrada"))
		case errors.Is(err, models.ErrPrecondicion):
			c.JSON(http.StatusPreconditionFailed, models.NewPreconditionError(err.Error()))
		case errors.Is(err, models.ErrTransaccionObsoleta):
			c.JSON(http.StatusConflict, models.NewErrorResponse(models.ErrorCodeConflict, err.Error()))
		default:
			api.logger.WithError(err).Error("Error confirmando el canje")
			c.JSON(http.StatusBadGateway, models.NewUpstreamError(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, respuestaTransaccion(transaccion))
}

// CancelarCanje cancela la transacción y descarta su contexto de validación
func (api *API) CancelarCanje(c *gin.Context) {
	var req TransaccionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "transaccion_id", Issue: "Requerido"},
		}))
		return
	}
	id, err := uuid.Parse(req.TransaccionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Identificador de transacción inválido", nil))
		return
	}
	if !api.canjeService.CerrarTransaccion(id) {
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Transacción no encontrada"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"estado": services.TransaccionCancelada})
}

// CanjearPuntosRequest es el cuerpo del canje directo de un código de puntos
type CanjearPuntosRequest struct {
	CodPunPublico string `json:"cod_pun_publico" binding:"required"`
	TarjetaID     string `json:"tarjeta_id"`
}

// CanjearPuntos canjea un código de puntos sin transacción de dos fases
func (api *API) CanjearPuntos(c *gin.Context) {
	var req CanjearPuntosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "cod_pun_publico", Issue: "Requerido"},
		}))
		return
	}

	resultado, err := api.canjeService.CanjearPuntos(c.Request.Context(), req.CodPunPublico, req.TarjetaID)
	if err != nil {
		api.logger.WithError(err).Error("Error canjeando el código de puntos")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, resultado)
}

// GetHistorialTarjeta retorna el historial de movimientos de una tarjeta
func (api *API) GetHistorialTarjeta(c *gin.Context) {
	tarjetaID := c.Param("id")
	movimientos, err := api.canjeService.HistorialTarjeta(c.Request.Context(), tarjetaID)
	if err != nil {
		api.logger.WithError(err).Error("Error consultando el historial de la tarjeta")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError("Error consultando el historial de la tarjeta"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"historial_tarjeta": movimientos})
}

// CrearCuponPromocional crea una definición de código promocional
func (api *API) CrearCuponPromocional(c *gin.Context) {
	var req models.CrearCodigoPromocionalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	if err := api.cuponService.CrearPromocional(c.Request.Context(), req); err != nil {
		api.logger.WithError(err).Error("Error creando el código promocional")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cod_publico": req.CodPublico})
}

// CrearCuponPuntos crea una definición de código de puntos
func (api *API) CrearCuponPuntos(c *gin.Context) {
	var req models.CrearCodigoPuntosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	if err := api.cuponService.CrearPuntos(c.Request.Context(), req); err != nil {
		api.logger.WithError(err).Error("Error creando el código de puntos")
		c.JSON(http.StatusBadGateway, models.NewUpstreamError(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cod_pun_publico": req.CodPunPublico})
}

// ActualizarEstadoCuponRequest es el cuerpo del cambio de estado de un cupón
type ActualizarEstadoCuponRequest struct {
	CodPublico string             `json:"cod_publico" binding:"required"`
	Estado     models.EstadoCupon `json:"estado" binding:"required"`
}

// ActualizarEstadoCupon cambia el estado de un cupón respetando la tabla de
// transiciones
func (api *API) ActualizarEstadoCupon(c *gin.Context) {
	var req ActualizarEstadoCuponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Formato de solicitud inválido", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}
	if !req.Estado.EsValido() {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Estado de cupón inválido", []models.ErrorDetail{
			{Field: "estado", Issue: "Estado desconocido"},
		}))
		return
	}

	err := api.cuponService.ActualizarEstadoPorCodigo(c.Request.Context(), req.CodPublico, req.Estado)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCuponNoEncontrado):
			c.JSON(http.StatusNotFound, models.NewNotFoundError("Cupón no encontrado"))
		case errors.Is(err, models.ErrTransicionInvalida):
			c.JSON(http.StatusConflict, models.NewErrorResponse(models.ErrorCodeConflict, err.Error()))
		case errors.Is(err, models.ErrPrecondicion):
			c.JSON(http.StatusPreconditionFailed, models.NewPreconditionError(err.Error()))
		default:
			api.logger.WithError(err).Error("Error actualizando el estado del cupón")
			c.JSON(http.StatusBadGateway, models.NewUpstreamError(err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"cod_publico": req.CodPublico, "estado": req.Estado})
}
