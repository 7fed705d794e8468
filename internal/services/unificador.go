package services

import (
	"fmt"
	"sort"

	"github.com/puntoclub-labs/canje-service/internal/models"
)

// El unificador proyecta cada colección heterogénea del backend a la forma
// canónica y mezcla la unión ordenada por fecha descendente. El merge es
// local: depende de que cada colección remota sea lo bastante chica para
// traerse completa.

// formato de clave de orden para fechas: ancho fijo para que el orden
// lexicográfico coincida con el cronológico
const formatoClaveFecha = "2006-01-02 15:04:05.000000000"

// ProyectarEncargados mapea el historial de encargado a la forma canónica.
// El mapeo es total: ningún registro se descarta.
func ProyectarEncargados(crudos []models.CanjeEncargadoRaw) []models.CanjeUnificado {
	canjes := make([]models.CanjeUnificado, 0, len(crudos))
	for _, crudo := range crudos {
		canjes = append(canjes, models.CanjeUnificado{
			ID:         models.IDCanjeUnificado(models.TipoCanjeEncargado, crudo.CanID),
			Tipo:       models.TipoCanjeEncargado,
			FechaCanje: crudo.CanFecha,
			NroTicket:  crudo.CodNroTicket,
			DNICliente: crudo.UsuDNI,
			Producto:   crudo.ProNombre,
			Encargado:  crudo.EncNombre,
		})
	}
	return canjes
}

// ProyectarPromociones mapea el historial de códigos promocionales
func ProyectarPromociones(crudos []models.CanjePromocionRaw) []models.CanjeUnificado {
	canjes := make([]models.CanjeUnificado, 0, len(crudos))
	for _, crudo := range crudos {
		codigo := crudo.CodPublico
		canjes = append(canjes, models.CanjeUnificado{
			ID:         models.IDCanjeUnificado(models.TipoCanjePromocion, crudo.CanID),
			Tipo:       models.TipoCanjePromocion,
			FechaCanje: crudo.CanFecha,
			NroTicket:  crudo.CodNroTicket,
			CodPublico: &codigo,
			DNICliente: crudo.UsuDNI,
			Producto:   crudo.ProNombre,
			Encargado:  crudo.EncNombre,
		})
	}
	return canjes
}

// ProyectarPuntos mapea el historial de códigos de puntos. Estos canjes no
// tienen ticket.
func ProyectarPuntos(crudos []models.CanjePuntosRaw) []models.CanjeUnificado {
	canjes := make([]models.CanjeUnificado, 0, len(crudos))
	for _, crudo := range crudos {
		codigo := crudo.CodPunPublico
		producto := fmt.Sprintf("%d puntos", crudo.Puntos)
		canjes = append(canjes, models.CanjeUnificado{
			ID:         models.IDCanjeUnificado(models.TipoCanjePuntos, crudo.CanID),
			Tipo:       models.TipoCanjePuntos,
			FechaCanje: crudo.CanFecha,
			CodPublico: &codigo,
			DNICliente: crudo.UsuDNI,
			Producto:   &producto,
		})
	}
	return canjes
}

// ProyectarClientes mapea el historial de canjes hechos por clientes
func ProyectarClientes(crudos []models.CanjeClienteRaw) []models.CanjeUnificado {
	canjes := make([]models.CanjeUnificado, 0, len(crudos))
	for _, crudo := range crudos {
		codigo := crudo.CodPublico
		canjes = append(canjes, models.CanjeUnificado{
			ID:         models.IDCanjeUnificado(models.TipoCanjeCliente, crudo.CanID),
			Tipo:       models.TipoCanjeCliente,
			FechaCanje: crudo.CanFecha,
			NroTicket:  crudo.CodNroTicket,
			CodPublico: &codigo,
			DNICliente: crudo.UsuDNI,
			Producto:   crudo.ProNombre,
		})
	}
	return canjes
}

// OrdenarCanjes ordena la unión por fecha de canje descendente. El orden es
// estable: los empates conservan el orden de entrada.
func OrdenarCanjes(canjes []models.CanjeUnificado) {
	sort.SliceStable(canjes, func(i, j int) bool {
		return canjes[i].FechaCanje.After(canjes[j].FechaCanje)
	})
}

// UnificarCupones proyecta y mezcla las dos colecciones de cupones. A
// diferencia de los canjes, siempre se unifican promocionales y de puntos:
// el filtro por tipo es de presentación, no de fetch.
func UnificarCupones(promocionales []models.CodigoPromocionalRaw, puntos []models.CodigoPuntosRaw) []models.CuponView {
	cupones := make([]models.CuponView, 0, len(promocionales)+len(puntos))
	for _, crudo := range promocionales {
		id := crudo.CodID
		producto := crudo.ProNombre
		cupones = append(cupones, models.CuponView{
			ID:               crudo.CodPublico,
			IDInterno:        &id,
			Tipo:             models.TipoCuponPromocional,
			CodPublico:       crudo.CodPublico,
			FechaEmision:     crudo.CodFechaEmision,
			FechaVencimiento: crudo.CodFechaVencimiento,
			MaxUsos:          crudo.CodMaxCanjes,
			Estado:           models.EstadoCuponDesdeNombre(crudo.EstNombre),
			Producto:         &producto,
		})
	}
	for _, crudo := range puntos {
		id := crudo.CodPunID
		cantidad := crudo.CodPunCantidad
		cupones = append(cupones, models.CuponView{
			ID:               crudo.CodPunPublico,
			IDInterno:        &id,
			Tipo:             models.TipoCuponPuntos,
			CodPublico:       crudo.CodPunPublico,
			FechaEmision:     crudo.CodPunFechaEmision,
			FechaVencimiento: crudo.CodPunFechaVencimiento,
			MaxUsos:          crudo.CodPunMaxCanjes,
			Estado:           models.EstadoCuponDesdeNombre(crudo.EstNombre),
			Puntos:           &cantidad,
		})
	}
	sort.SliceStable(cupones, func(i, j int) bool {
		return cupones[i].FechaEmision.After(cupones[j].FechaEmision)
	})
	return cupones
}

// CamposBusquedaCanje retorna los campos sobre los que busca la tabla de
// canjes: código, producto, DNI y ticket
func CamposBusquedaCanje(canje models.CanjeUnificado) []string {
	campos := []string{canje.DNICliente}
	if canje.CodPublico != nil {
		campos = append(campos, *canje.CodPublico)
	}
	if canje.Producto != nil {
		campos = append(campos, *canje.Producto)
	}
	if canje.NroTicket != nil {
		campos = append(campos, *canje.NroTicket)
	}
	return campos
}

// ClaveOrdenCanje retorna la clave de comparación de una columna de la tabla
// de canjes y si el registro tiene valor para ella
func ClaveOrdenCanje(canje models.CanjeUnificado, campo string) (string, bool) {
	switch campo {
	case "fecha_canje":
		return canje.FechaCanje.UTC().Format(formatoClaveFecha), true
	case "cod_publico":
		if canje.CodPublico == nil {
			return "", false
		}
		return Normalizar(*canje.CodPublico), true
	case "nro_ticket":
		if canje.NroTicket == nil {
			return "", false
		}
		return Normalizar(*canje.NroTicket), true
	case "dni_cliente":
		return canje.DNICliente, true
	case "producto":
		if canje.Producto == nil {
			return "", false
		}
		return Normalizar(*canje.Producto), true
	case "encargado":
		if canje.Encargado == nil {
			return "", false
		}
		return Normalizar(*canje.Encargado), true
	}
	return "", false
}

// CamposBusquedaCupon retorna los campos sobre los que busca la tabla de
// cupones: código, producto y etiqueta de estado
func CamposBusquedaCupon(cupon models.CuponView) []string {
	campos := []string{cupon.CodPublico, string(cupon.Estado)}
	if cupon.Producto != nil {
		campos = append(campos, *cupon.Producto)
	}
	return campos
}

// ClaveOrdenCupon retorna la clave de comparación de una columna de la tabla
// de cupones y si el registro tiene valor para ella
func ClaveOrdenCupon(cupon models.CuponView, campo string) (string, bool) {
	switch campo {
	case "fecha_emision":
		return cupon.FechaEmision.UTC().Format(formatoClaveFecha), true
	case "fecha_vencimiento":
		return cupon.FechaVencimiento.UTC().Format(formatoClaveFecha), true
	case "cod_publico":
		return Normalizar(cupon.CodPublico), true
	case "estado":
		return string(cupon.Estado), true
	case "producto":
		if cupon.Producto == nil {
			return "", false
		}
		return Normalizar(*cupon.Producto), true
	case "max_usos":
		return fmt.Sprintf("%012d", cupon.MaxUsos), true
	case "puntos":
		if cupon.Puntos == nil {
			return "", false
		}
		return fmt.Sprintf("%012d", *cupon.Puntos), true
	}
	return "", false
}
