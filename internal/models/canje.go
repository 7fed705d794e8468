package models

import (
	"fmt"
	"time"
)

// TipoCanje representa el origen de un canje dentro del historial unificado
type TipoCanje string

const (
	TipoCanjeEncargado TipoCanje = "encargado"
	TipoCanjePromocion TipoCanje = "promocion"
	TipoCanjePuntos    TipoCanje = "puntos"
	TipoCanjeCliente   TipoCanje = "cliente"
)

// EsValido indica si el tipo de canje es uno de los orígenes conocidos
func (t TipoCanje) EsValido() bool {
	switch t {
	case TipoCanjeEncargado, TipoCanjePromocion, TipoCanjePuntos, TipoCanjeCliente:
		return true
	}
	return false
}

// CanjeUnificado representa un canje en su forma canónica, posterior a la
// unificación de las colecciones heterogéneas del backend
type CanjeUnificado struct {
	ID         string    `json:"id"`
	Tipo       TipoCanje `json:"tipo"`
	FechaCanje time.Time `json:"fecha_canje"`
	NroTicket  *string   `json:"nro_ticket,omitempty"`
	CodPublico *string   `json:"cod_publico,omitempty"`
	DNICliente string    `json:"dni_cliente"`
	Producto   *string   `json:"producto,omitempty"`
	Encargado  *string   `json:"encargado,omitempty"`
}

// CanjeEncargadoRaw representa un canje del historial de encargado tal como
// lo entrega el backend
type CanjeEncargadoRaw struct {
	CanID        int64     `json:"can_id"`
	CanFecha     time.Time `json:"can_fecha"`
	UsuDNI       string    `json:"usu_dni"`
	ProNombre    *string   `json:"pro_nombre,omitempty"`
	EncNombre    *string   `json:"enc_nombre,omitempty"`
	CodNroTicket *string   `json:"cod_nro_ticket,omitempty"`
}

// CanjePromocionRaw representa un canje de código promocional del backend
type CanjePromocionRaw struct {
	CanID        int64     `json:"can_id"`
	CanFecha     time.Time `json:"can_fecha"`
	CodPublico   string    `json:"cod_publico"`
	UsuDNI       string    `json:"usu_dni"`
	ProNombre    *string   `json:"pro_nombre,omitempty"`
	EncNombre    *string   `json:"enc_nombre,omitempty"`
	CodNroTicket *string   `json:"cod_nro_ticket,omitempty"`
}

// CanjePuntosRaw representa un canje de código de puntos del backend.
// Los canjes de puntos no tienen concepto de ticket.
type CanjePuntosRaw struct {
	CanID         int64     `json:"can_id"`
	CanFecha      time.Time `json:"can_fecha"`
	CodPunPublico string    `json:"cod_pun_publico"`
	UsuDNI        string    `json:"usu_dni"`
	Puntos        int       `json:"puntos"`
}

// CanjeClienteRaw representa un canje realizado por un cliente desde la tienda
type CanjeClienteRaw struct {
	CanID        int64     `json:"can_id"`
	CanFecha     time.Time `json:"can_fecha"`
	CodPublico   string    `json:"cod_publico"`
	UsuDNI       string    `json:"usu_dni"`
	ProNombre    *string   `json:"pro_nombre,omitempty"`
	CodNroTicket *string   `json:"cod_nro_ticket,omitempty"`
}

// MovimientoTarjetaRaw representa un movimiento del historial de una tarjeta
type MovimientoTarjetaRaw struct {
	MovID      int64     `json:"mov_id"`
	MovFecha   time.Time `json:"mov_fecha"`
	MovDetalle string    `json:"mov_detalle"`
	Puntos     int       `json:"puntos"`
}

// HistorialCanjesResponse es el sobre de respuesta del backend para los
// historiales de canjes de cualquier origen
type HistorialCanjesResponse[T any] struct {
	HistorialCanjes []T `json:"historial_canjes"`
}

// HistorialTarjetaResponse es el sobre de respuesta del historial de tarjeta
type HistorialTarjetaResponse struct {
	HistorialTarjeta []MovimientoTarjetaRaw `json:"historial_tarjeta"`
}

// ValidacionClienteRaw es el resultado de validar un código contra la
// interpretación de código de cliente/puntos
type ValidacionClienteRaw struct {
	CodigoCliente string  `json:"codigo_cliente"`
	UsuDNI        string  `json:"usu_dni"`
	ProNombre     *string `json:"pro_nombre,omitempty"`
	Puntos        *int    `json:"puntos,omitempty"`
}

// ValidacionPromocionRaw es el resultado de validar un código contra la
// interpretación de código promocional
type ValidacionPromocionRaw struct {
	CodigoPromocion string  `json:"codigo_promocion"`
	UsuDNI          string  `json:"usu_dni"`
	ProNombre       *string `json:"pro_nombre,omitempty"`
	CodID           *int64  `json:"cod_id,omitempty"`
}

// CanjearClienteRequest es el cuerpo del canje de un código de cliente
type CanjearClienteRequest struct {
	UsuDNI       string `json:"usu_dni"`
	CodPublico   string `json:"cod_publico"`
	CodNroTicket string `json:"cod_nro_ticket"`
}

// CanjearPromocionRequest es el cuerpo del canje de un código promocional
type CanjearPromocionRequest struct {
	UsuDNI       string `json:"usu_dni"`
	CodPublico   string `json:"cod_publico"`
	CodNroTicket string `json:"cod_nro_ticket"`
}

// CanjearPuntosRequest es el cuerpo del canje de un código de puntos
type CanjearPuntosRequest struct {
	CodPunPublico string `json:"cod_pun_publico"`
}

// CanjePuntosResultado es la respuesta del backend al canjear un código de puntos
type CanjePuntosResultado struct {
	PuntosAsignados int    `json:"puntos_asignados"`
	Sucursal        string `json:"sucursal"`
	Mensaje         string `json:"mensaje"`
}

// IDCanjeUnificado sintetiza el identificador canónico de un canje a partir
// de su origen y el identificador de la colección fuente
func IDCanjeUnificado(tipo TipoCanje, origenID int64) string {
	return fmt.Sprintf("%s-%d", tipo, origenID)
}
