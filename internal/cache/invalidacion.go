package cache

// Claves de las consultas de lectura. Cada colección del backend tiene la
// suya para que la invalidación nunca arrastre vistas no relacionadas.
const (
	ClaveCanjesEncargado      = "canjes:encargado"
	ClaveCanjesPromocion      = "canjes:promocion"
	ClaveCanjesPuntos         = "canjes:puntos"
	ClaveCanjesCliente        = "canjes:cliente"
	ClaveCuponesPromocionales = "cupones:promocionales"
	ClaveCuponesPuntos        = "cupones:puntos"
)

// ClaveHistorialTarjeta construye la clave del historial de una tarjeta
func ClaveHistorialTarjeta(tarjetaID string) string {
	return "tarjetas:" + tarjetaID + ":historial"
}

// ClavesCanjeCliente retorna las claves afectadas por el canje de un código
// de cliente: la vista de encargado y la de cliente, nunca las de promoción
// ni puntos
func ClavesCanjeCliente() []string {
	return []string{ClaveCanjesEncargado, ClaveCanjesCliente}
}

// ClavesCanjePromocion retorna las claves afectadas por el canje de un
// código promocional: solo la vista de promoción
func ClavesCanjePromocion() []string {
	return []string{ClaveCanjesPromocion}
}

// ClavesCanjePuntos retorna las claves afectadas por el canje de un código
// de puntos: la vista de puntos y, si hay una tarjeta en contexto, el
// historial de esa tarjeta
func ClavesCanjePuntos(tarjetaID string) []string {
	claves := []string{ClaveCanjesPuntos}
	if tarjetaID != "" {
		claves = append(claves, ClaveHistorialTarjeta(tarjetaID))
	}
	return claves
}

// ClavesEstadoCupon retorna las claves afectadas por un cambio de estado de
// cupón. El origen del cupón no siempre se conoce en el punto de llamada,
// así que se invalidan ambas colecciones: volver a consultarlas es barato.
func ClavesEstadoCupon() []string {
	return []string{ClaveCuponesPromocionales, ClaveCuponesPuntos}
}
