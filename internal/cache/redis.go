package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/puntoclub-labs/canje-service/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore es el Store respaldado por Redis. La caché de consultas queda
// compartida entre instancias del servicio.
type RedisStore struct {
	client *redis.Client
}

// ConnectRedis establece la conexión a Redis y retorna el store
func ConnectRedis(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	// Verificar conexión
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error pinging Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Close cierra la conexión a Redis
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// HealthCheck verifica la salud de Redis
func (s *RedisStore) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Ping(ctx).Err()
}

// Get obtiene una entrada; una clave inexistente es un miss, no un error
func (s *RedisStore) Get(ctx context.Context, clave string) ([]byte, bool, error) {
	datos, err := s.client.Get(ctx, clave).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error leyendo de Redis: %w", err)
	}
	return datos, true, nil
}

// Set guarda una entrada con TTL
func (s *RedisStore) Set(ctx context.Context, clave string, valor []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, clave, valor, ttl).Err(); err != nil {
		return fmt.Errorf("error escribiendo en Redis: %w", err)
	}
	return nil
}

// Delete elimina las claves indicadas
func (s *RedisStore) Delete(ctx context.Context, claves ...string) error {
	if len(claves) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, claves...).Err(); err != nil {
		return fmt.Errorf("error eliminando claves de Redis: %w", err)
	}
	return nil
}
