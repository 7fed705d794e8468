package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/puntoclub-labs/canje-service/internal/config"
	"github.com/puntoclub-labs/canje-service/internal/models"
	"github.com/sirupsen/logrus"
)

// HTTPClient implementa CanjeClient y CuponClient contra la API HTTP del
// backend de fidelización. Cada llamada corre bajo un timeout acotado para
// que una transacción nunca quede pendiente de forma indefinida.
type HTTPClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	logger  *logrus.Logger
}

// NewHTTPClient crea una nueva instancia del cliente HTTP
func NewHTTPClient(cfg *config.BackendConfig, logger *logrus.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// doJSON ejecuta una llamada JSON contra el backend y decodifica la
// respuesta en out cuando out no es nil
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error serializando request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creando request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error llamando al backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		mensaje := leerMensajeError(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("El backend respondió con error")
		return fmt.Errorf("el backend respondió %d: %s", resp.StatusCode, mensaje)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decodificando respuesta: %w", err)
	}
	return nil
}

// leerMensajeError extrae el mensaje del sobre de error del backend, o el
// cuerpo crudo si no tiene esa forma
func leerMensajeError(body io.Reader) string {
	datos, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(datos) == 0 {
		return "sin detalle"
	}
	var envoltura struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Mensaje string `json:"mensaje"`
	}
	if err := json.Unmarshal(datos, &envoltura); err == nil {
		if envoltura.Error.Message != "" {
			return envoltura.Error.Message
		}
		if envoltura.Mensaje != "" {
			return envoltura.Mensaje
		}
	}
	return string(datos)
}

// HistorialEncargado obtiene el historial de canjes de la vista encargado
func (c *HTTPClient) HistorialEncargado(ctx context.Context) ([]models.CanjeEncargadoRaw, error) {
	var resp models.HistorialCanjesResponse[models.CanjeEncargadoRaw]
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canjes/historial/encargado", nil, &resp); err != nil {
		return nil, err
	}
	return resp.HistorialCanjes, nil
}

// HistorialPromocion obtiene el historial de canjes de códigos promocionales
func (c *HTTPClient) HistorialPromocion(ctx context.Context) ([]models.CanjePromocionRaw, error) {
	var resp models.HistorialCanjesResponse[models.CanjePromocionRaw]
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canjes/historial/promocion", nil, &resp); err != nil {
		return nil, err
	}
	return resp.HistorialCanjes, nil
}

// HistorialPuntos obtiene el historial de canjes de códigos de puntos
func (c *HTTPClient) HistorialPuntos(ctx context.Context) ([]models.CanjePuntosRaw, error) {
	var resp models.HistorialCanjesResponse[models.CanjePuntosRaw]
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canjes/historial/puntos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.HistorialCanjes, nil
}

// HistorialCliente obtiene el historial de canjes hechos por clientes
func (c *HTTPClient) HistorialCliente(ctx context.Context) ([]models.CanjeClienteRaw, error) {
	var resp models.HistorialCanjesResponse[models.CanjeClienteRaw]
	if err := c.doJSON(ctx, http.MethodGet, "/v1/canjes/historial/cliente", nil, &resp); err != nil {
		return nil, err
	}
	return resp.HistorialCanjes, nil
}

// HistorialTarjeta obtiene el historial de movimientos de una tarjeta
func (c *HTTPClient) HistorialTarjeta(ctx context.Context, tarjetaID string) ([]models.MovimientoTarjetaRaw, error) {
	var resp models.HistorialTarjetaResponse
	path := "/v1/tarjetas/" + url.PathEscape(tarjetaID) + "/historial"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.HistorialTarjeta, nil
}

// ValidarCodigoCliente valida un código contra la interpretación de cliente
func (c *HTTPClient) ValidarCodigoCliente(ctx context.Context, codigo, dni string) (*models.ValidacionClienteRaw, error) {
	cuerpo := map[string]string{"cod_publico": codigo, "usu_dni": dni}
	var resp models.ValidacionClienteRaw
	if err := c.doJSON(ctx, http.MethodPost, "/v1/codigos/cliente/validar", cuerpo, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidarCodigoPromocion valida un código contra la interpretación promocional
func (c *HTTPClient) ValidarCodigoPromocion(ctx context.Context, codigo, dni string) (*models.ValidacionPromocionRaw, error) {
	cuerpo := map[string]string{"cod_publico": codigo, "usu_dni": dni}
	var resp models.ValidacionPromocionRaw
	if err := c.doJSON(ctx, http.MethodPost, "/v1/codigos/promocion/validar", cuerpo, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CanjearCodigoCliente confirma el canje de un código de cliente
func (c *HTTPClient) CanjearCodigoCliente(ctx context.Context, req models.CanjearClienteRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/codigos/cliente/canjear", req, nil)
}

// CanjearCodigoPromocion confirma el canje de un código promocional
func (c *HTTPClient) CanjearCodigoPromocion(ctx context.Context, req models.CanjearPromocionRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/codigos/promocion/canjear", req, nil)
}

// CanjearCodigoPuntos canjea un código de puntos
func (c *HTTPClient) CanjearCodigoPuntos(ctx context.Context, req models.CanjearPuntosRequest) (*models.CanjePuntosResultado, error) {
	var resp models.CanjePuntosResultado
	if err := c.doJSON(ctx, http.MethodPost, "/v1/codigos/puntos/canjear", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CodigosPromocionales obtiene las definiciones de códigos promocionales
func (c *HTTPClient) CodigosPromocionales(ctx context.Context, estado string) ([]models.CodigoPromocionalRaw, error) {
	var resp models.CodigosPromocionalesResponse
	path := "/v1/codigos/promocionales"
	if estado != "" {
		path += "?estado=" + url.QueryEscape(estado)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.CodigosPromocionales, nil
}

// CodigosPuntos obtiene las definiciones de códigos de puntos
func (c *HTTPClient) CodigosPuntos(ctx context.Context, estado string) ([]models.CodigoPuntosRaw, error) {
	var resp models.CodigosPuntosResponse
	path := "/v1/codigos/puntos"
	if estado != "" {
		path += "?estado=" + url.QueryEscape(estado)
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.CodigosPuntos, nil
}

// CrearCodigoPromocional crea una definición de código promocional
func (c *HTTPClient) CrearCodigoPromocional(ctx context.Context, req models.CrearCodigoPromocionalRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/codigos/promocionales", req, nil)
}

// CrearCodigoPuntos crea una definición de código de puntos
func (c *HTTPClient) CrearCodigoPuntos(ctx context.Context, req models.CrearCodigoPuntosRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/codigos/puntos", req, nil)
}

// ActualizarEstadoPromocional actualiza el estado de un código promocional
func (c *HTTPClient) ActualizarEstadoPromocional(ctx context.Context, req models.ActualizarEstadoRequest) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/codigos/promocionales/estado", req, nil)
}

// ActualizarEstadoPuntos actualiza el estado de un código de puntos
func (c *HTTPClient) ActualizarEstadoPuntos(ctx context.Context, req models.ActualizarEstadoRequest) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/codigos/puntos/estado", req, nil)
}
