package models

import (
	"strings"
	"time"
)

// TipoCupon representa el tipo de cupón
type TipoCupon string

const (
	TipoCuponPromocional TipoCupon = "promocional"
	TipoCuponPuntos      TipoCupon = "puntos"
)

// EsValido indica si el tipo de cupón es conocido
func (t TipoCupon) EsValido() bool {
	return t == TipoCuponPromocional || t == TipoCuponPuntos
}

// EstadoCupon representa el estado del ciclo de vida de un cupón
type EstadoCupon string

const (
	EstadoCuponActivo    EstadoCupon = "activo"
	EstadoCuponAgotado   EstadoCupon = "agotado"
	EstadoCuponCancelado EstadoCupon = "cancelado"
	EstadoCuponCanjeado  EstadoCupon = "canjeado"
	EstadoCuponVencido   EstadoCupon = "vencido"
	EstadoCuponPausado   EstadoCupon = "pausado"
)

// estadoCuponIDs mapea cada estado a su identificador en el backend
var estadoCuponIDs = map[EstadoCupon]int{
	EstadoCuponActivo:    1,
	EstadoCuponAgotado:   2,
	EstadoCuponCancelado: 3,
	EstadoCuponCanjeado:  4,
	EstadoCuponVencido:   5,
	EstadoCuponPausado:   6,
}

// EstadoID retorna el identificador del estado en el backend, o 0 si el
// estado no es conocido
func (e EstadoCupon) EstadoID() int {
	return estadoCuponIDs[e]
}

// EsValido indica si el estado es uno de los conocidos
func (e EstadoCupon) EsValido() bool {
	_, ok := estadoCuponIDs[e]
	return ok
}

// transicionesEstado define las transiciones de estado permitidas por acción
// del usuario. Cancelado es terminal; los estados que no figuran no admiten
// transiciones salientes.
var transicionesEstado = map[EstadoCupon]map[EstadoCupon]bool{
	EstadoCuponActivo: {
		EstadoCuponPausado:   true,
		EstadoCuponCancelado: true,
	},
	EstadoCuponPausado: {
		EstadoCuponActivo:    true,
		EstadoCuponCancelado: true,
	},
}

// PuedeTransicionarA indica si el estado admite la transición al destino
func (e EstadoCupon) PuedeTransicionarA(destino EstadoCupon) bool {
	return transicionesEstado[e][destino]
}

// CuponView representa un cupón en su forma canónica, posterior a la
// unificación de códigos promocionales y de puntos
type CuponView struct {
	ID               string      `json:"id"`
	IDInterno        *int64      `json:"id_interno,omitempty"`
	Tipo             TipoCupon   `json:"tipo"`
	CodPublico       string      `json:"cod_publico"`
	FechaEmision     time.Time   `json:"fecha_emision"`
	FechaVencimiento time.Time   `json:"fecha_vencimiento"`
	MaxUsos          int         `json:"max_usos"`
	Estado           EstadoCupon `json:"estado"`
	Producto         *string     `json:"producto,omitempty"`
	Puntos           *int        `json:"puntos,omitempty"`
}

// CodigoPromocionalRaw representa un código promocional del backend
type CodigoPromocionalRaw struct {
	CodID               int64     `json:"cod_id"`
	CodPublico          string    `json:"cod_publico"`
	CodFechaEmision     time.Time `json:"cod_fecha_emision"`
	CodFechaVencimiento time.Time `json:"cod_fecha_vencimiento"`
	CodMaxCanjes        int       `json:"cod_max_canjes"`
	EstNombre           string    `json:"est_nombre"`
	ProNombre           string    `json:"pro_nombre"`
}

// CodigoPuntosRaw representa un código de puntos del backend
type CodigoPuntosRaw struct {
	CodPunID               int64     `json:"cod_pun_id"`
	CodPunPublico          string    `json:"cod_pun_publico"`
	CodPunFechaEmision     time.Time `json:"cod_pun_fecha_emision"`
	CodPunFechaVencimiento time.Time `json:"cod_pun_fecha_vencimiento"`
	CodPunMaxCanjes        int       `json:"cod_pun_max_canjes"`
	EstNombre              string    `json:"est_nombre"`
	CodPunCantidad         int       `json:"cod_pun_cantidad"`
}

// CodigosPromocionalesResponse es el sobre de respuesta del backend
type CodigosPromocionalesResponse struct {
	CodigosPromocionales []CodigoPromocionalRaw `json:"codigos_promocionales"`
}

// CodigosPuntosResponse es el sobre de respuesta del backend
type CodigosPuntosResponse struct {
	CodigosPuntos []CodigoPuntosRaw `json:"codigos_puntos"`
}

// CrearCodigoPromocionalRequest es el cuerpo de creación de un código promocional
type CrearCodigoPromocionalRequest struct {
	CodPublico          string    `json:"cod_publico" binding:"required"`
	ProID               int64     `json:"pro_id" binding:"required"`
	CodMaxCanjes        int       `json:"cod_max_canjes" binding:"required,min=1"`
	CodFechaVencimiento time.Time `json:"cod_fecha_vencimiento" binding:"required"`
}

// CrearCodigoPuntosRequest es el cuerpo de creación de un código de puntos
type CrearCodigoPuntosRequest struct {
	CodPunPublico          string    `json:"cod_pun_publico" binding:"required"`
	CodPunCantidad         int       `json:"cod_pun_cantidad" binding:"required,min=1"`
	CodPunMaxCanjes        int       `json:"cod_pun_max_canjes" binding:"required,min=1"`
	CodPunFechaVencimiento time.Time `json:"cod_pun_fecha_vencimiento" binding:"required"`
}

// ActualizarEstadoRequest es el cuerpo de actualización de estado de un cupón
type ActualizarEstadoRequest struct {
	CodID    int64 `json:"cod_id"`
	EstCodID int   `json:"est_cod_id"`
}

// EstadoCuponDesdeNombre traduce el nombre de estado del backend al estado
// canónico. Nombres desconocidos se conservan normalizados en minúsculas para
// no descartar registros durante la proyección.
func EstadoCuponDesdeNombre(nombre string) EstadoCupon {
	switch nombre {
	case "Activo", "activo":
		return EstadoCuponActivo
	case "Agotado", "agotado":
		return EstadoCuponAgotado
	case "Cancelado", "cancelado":
		return EstadoCuponCancelado
	case "Canjeado", "canjeado":
		return EstadoCuponCanjeado
	case "Vencido", "vencido":
		return EstadoCuponVencido
	case "Pausado", "pausado":
		return EstadoCuponPausado
	}
	return EstadoCupon(strings.ToLower(nombre))
}
