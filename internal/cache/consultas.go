package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Consultas es la caché de consultas por clave compartida por todas las
// tablas del servicio. Cada colección del backend se cachea bajo su propia
// clave y se invalida de forma selectiva.
type Consultas struct {
	store  Store
	ttl    time.Duration
	logger *logrus.Logger
}

// NewConsultas crea una nueva instancia de la caché de consultas
func NewConsultas(store Store, ttl time.Duration, logger *logrus.Logger) *Consultas {
	return &Consultas{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Invalidar elimina las claves indicadas. Nunca hace un flush global.
func (c *Consultas) Invalidar(ctx context.Context, claves ...string) {
	if len(claves) == 0 {
		return
	}
	if err := c.store.Delete(ctx, claves...); err != nil {
		c.logger.WithError(err).WithField("claves", claves).Warn("Error invalidando claves de la caché")
		return
	}
	c.logger.WithField("claves", claves).Debug("Claves de caché invalidadas")
}

// Obtener resuelve una consulta a través de la caché: devuelve la entrada
// cacheada bajo la clave o ejecuta cargar y cachea el resultado. Una entrada
// que no deserializa se trata como un miss.
func Obtener[T any](ctx context.Context, c *Consultas, clave string, cargar func(context.Context) (T, error)) (T, error) {
	var vacio T

	datos, ok, err := c.store.Get(ctx, clave)
	if err != nil {
		c.logger.WithError(err).WithField("clave", clave).Warn("Error leyendo la caché, se consulta el backend")
	} else if ok {
		var valor T
		if err := json.Unmarshal(datos, &valor); err == nil {
			return valor, nil
		}
		c.logger.WithField("clave", clave).Warn("Entrada de caché corrupta, se consulta el backend")
	}

	valor, err := cargar(ctx)
	if err != nil {
		return vacio, err
	}

	serializado, err := json.Marshal(valor)
	if err != nil {
		c.logger.WithError(err).WithField("clave", clave).Warn("Error serializando para la caché")
		return valor, nil
	}
	if err := c.store.Set(ctx, clave, serializado, c.ttl); err != nil {
		c.logger.WithError(err).WithField("clave", clave).Warn("Error escribiendo en la caché")
	}
	return valor, nil
}
