package cache

import (
	"context"
	"sync"
	"time"
)

// Store define el almacenamiento subyacente de la caché de consultas. La
// invalidación siempre es por clave, nunca un flush global.
type Store interface {
	Get(ctx context.Context, clave string) ([]byte, bool, error)
	Set(ctx context.Context, clave string, valor []byte, ttl time.Duration) error
	Delete(ctx context.Context, claves ...string) error
}

type entradaMemoria struct {
	datos []byte
	vence time.Time
}

// MemoriaStore es el Store en memoria del proceso, usado cuando no hay Redis
// configurado
type MemoriaStore struct {
	mu       sync.RWMutex
	entradas map[string]entradaMemoria
}

// NewMemoriaStore crea una nueva instancia del store en memoria
func NewMemoriaStore() *MemoriaStore {
	return &MemoriaStore{
		entradas: make(map[string]entradaMemoria),
	}
}

// Get obtiene una entrada; una entrada vencida se comporta como un miss
func (s *MemoriaStore) Get(ctx context.Context, clave string) ([]byte, bool, error) {
	s.mu.RLock()
	entrada, ok := s.entradas[clave]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entrada.vence.IsZero() && time.Now().After(entrada.vence) {
		s.mu.Lock()
		delete(s.entradas, clave)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entrada.datos, true, nil
}

// Set guarda una entrada con TTL; ttl cero significa sin vencimiento
func (s *MemoriaStore) Set(ctx context.Context, clave string, valor []byte, ttl time.Duration) error {
	entrada := entradaMemoria{datos: valor}
	if ttl > 0 {
		entrada.vence = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.entradas[clave] = entrada
	s.mu.Unlock()
	return nil
}

// Delete elimina las claves indicadas
func (s *MemoriaStore) Delete(ctx context.Context, claves ...string) error {
	s.mu.Lock()
	for _, clave := range claves {
		delete(s.entradas, clave)
	}
	s.mu.Unlock()
	return nil
}
