package models

// DireccionOrden representa la dirección de ordenamiento de una columna
type DireccionOrden string

const (
	OrdenAscendente  DireccionOrden = "asc"
	OrdenDescendente DireccionOrden = "desc"
)

// Orden representa el ordenamiento explícito por columna de una tabla
type Orden struct {
	Campo     string         `json:"campo"`
	Direccion DireccionOrden `json:"direccion"`
}

// EstadoTabla agrupa el estado de paginación/orden/búsqueda que la tabla
// devuelve junto con los datos para que el consumidor renderice sus controles
type EstadoTabla struct {
	Pagina       int    `json:"pagina"`
	Tamanio      int    `json:"tamanio"`
	Total        int    `json:"total"`
	TotalPaginas int    `json:"total_paginas"`
	Busqueda     string `json:"busqueda,omitempty"`
	Orden        *Orden `json:"orden,omitempty"`
}

// TablaCanjes es la proyección lista para renderizar del historial de canjes
type TablaCanjes struct {
	Vista     TipoCanje        `json:"vista"`
	Registros []CanjeUnificado `json:"registros"`
	EstadoTabla
}

// TablaCupones es la proyección lista para renderizar de los cupones
type TablaCupones struct {
	Tipo      *TipoCupon  `json:"tipo,omitempty"`
	Registros []CuponView `json:"registros"`
	EstadoTabla
}
