package services

import (
	"sort"

	"github.com/puntoclub-labs/canje-service/internal/models"
)

// OpcionesTabla parametriza el procesamiento de una tabla. Los accesores de
// campos los define cada entidad; el procesador no conoce su forma.
type OpcionesTabla[T any] struct {
	Busqueda       string
	CamposBusqueda func(T) []string
	Orden          *models.Orden
	// ClaveOrden retorna la clave de comparación del campo y si el registro
	// tiene valor para ese campo. Los registros sin valor quedan al final
	// sin importar la dirección.
	ClaveOrden func(T, string) (string, bool)
	Pagina     int
	Tamanio    int
}

// ResultadoTabla es el resultado del procesamiento: la página pedida más los
// totales posteriores al filtrado
type ResultadoTabla[T any] struct {
	Registros    []T
	Total        int
	TotalPaginas int
}

// ProcesarTabla aplica búsqueda, orden explícito y paginado sobre el
// conjunto ya unificado, enteramente en memoria. Es una función pura: el
// resultado se deriva solo de sus entradas.
func ProcesarTabla[T any](registros []T, op OpcionesTabla[T]) ResultadoTabla[T] {
	pagina := op.Pagina
	if pagina < 1 {
		pagina = 1
	}
	tamanio := op.Tamanio
	if tamanio < 1 {
		tamanio = 10
	}

	filtrados := registros
	if op.Busqueda != "" && op.CamposBusqueda != nil {
		filtrados = make([]T, 0, len(registros))
		for _, registro := range registros {
			if CoincideBusqueda(op.Busqueda, op.CamposBusqueda(registro)...) {
				filtrados = append(filtrados, registro)
			}
		}
	}

	if op.Orden != nil && op.ClaveOrden != nil {
		ordenados := make([]T, len(filtrados))
		copy(ordenados, filtrados)
		campo := op.Orden.Campo
		descendente := op.Orden.Direccion == models.OrdenDescendente
		sort.SliceStable(ordenados, func(i, j int) bool {
			claveI, okI := op.ClaveOrden(ordenados[i], campo)
			claveJ, okJ := op.ClaveOrden(ordenados[j], campo)
			if !okI || !okJ {
				// Sin valor va al final sin importar la dirección
				return okI && !okJ
			}
			if descendente {
				return claveJ < claveI
			}
			return claveI < claveJ
		})
		filtrados = ordenados
	}

	total := len(filtrados)
	totalPaginas := (total + tamanio - 1) / tamanio

	inicio := (pagina - 1) * tamanio
	if inicio >= total {
		// Una página fuera de rango devuelve una porción vacía
		return ResultadoTabla[T]{Registros: []T{}, Total: total, TotalPaginas: totalPaginas}
	}
	fin := inicio + tamanio
	if fin > total {
		fin = total
	}
	return ResultadoTabla[T]{Registros: filtrados[inicio:fin], Total: total, TotalPaginas: totalPaginas}
}

// SesionTabla mantiene el estado de paginación/orden/búsqueda de una
// instancia de tabla. Cambiar el campo de orden, el término de búsqueda o el
// tamaño de página vuelve a la página 1.
type SesionTabla struct {
	pagina   int
	tamanio  int
	orden    *models.Orden
	busqueda string
}

// NewSesionTabla crea una sesión con los valores iniciales de la tabla
func NewSesionTabla() *SesionTabla {
	return &SesionTabla{pagina: 1, tamanio: 10}
}

// SetPagina cambia la página actual (base 1)
func (s *SesionTabla) SetPagina(pagina int) {
	if pagina < 1 {
		pagina = 1
	}
	s.pagina = pagina
}

// SetTamanio cambia el tamaño de página y vuelve a la página 1
func (s *SesionTabla) SetTamanio(tamanio int) {
	if tamanio < 1 {
		tamanio = 10
	}
	if tamanio != s.tamanio {
		s.pagina = 1
	}
	s.tamanio = tamanio
}

// SetOrden cambia el ordenamiento; cambiar de campo vuelve a la página 1
func (s *SesionTabla) SetOrden(campo string, direccion models.DireccionOrden) {
	if campo == "" {
		s.orden = nil
		return
	}
	if s.orden == nil || s.orden.Campo != campo {
		s.pagina = 1
	}
	s.orden = &models.Orden{Campo: campo, Direccion: direccion}
}

// SetBusqueda cambia el término de búsqueda y vuelve a la página 1
func (s *SesionTabla) SetBusqueda(termino string) {
	if termino != s.busqueda {
		s.pagina = 1
	}
	s.busqueda = termino
}

// Pagina retorna la página actual
func (s *SesionTabla) Pagina() int { return s.pagina }

// Tamanio retorna el tamaño de página actual
func (s *SesionTabla) Tamanio() int { return s.tamanio }

// Orden retorna el ordenamiento actual, o nil si no hay
func (s *SesionTabla) Orden() *models.Orden { return s.orden }

// Busqueda retorna el término de búsqueda actual
func (s *SesionTabla) Busqueda() string { return s.busqueda }
