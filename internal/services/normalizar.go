package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizar lleva un término de búsqueda o el valor de un campo a su forma
// comparable: minúsculas, sin tildes ni diacríticos, sin puntuación y sin
// espacios en los extremos. Es idempotente y se aplica por igual al término
// buscado y a cada campo antes de comparar.
func Normalizar(s string) string {
	minusculas := strings.ToLower(strings.TrimSpace(s))

	// Descomponer (NFD), quitar las marcas diacríticas y recomponer
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	sinTildes, _, err := transform.String(t, minusculas)
	if err != nil {
		sinTildes = minusculas
	}

	var b strings.Builder
	b.Grow(len(sinTildes))
	for _, r := range sinTildes {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// CoincideBusqueda indica si alguno de los campos contiene el término, con
// comparación normalizada por contención de substring
func CoincideBusqueda(termino string, campos ...string) bool {
	terminoNorm := Normalizar(termino)
	if terminoNorm == "" {
		return true
	}
	for _, campo := range campos {
		if strings.Contains(Normalizar(campo), terminoNorm) {
			return true
		}
	}
	return false
}
