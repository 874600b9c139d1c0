package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Backend.Load when nothing has been saved yet.
var ErrNotFound = errors.New("state not found")

// Backend is the stable storage for the encoded world document.
type Backend interface {
	// Load returns the last saved document or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
	Name() string
}

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// BackendConfig selects and configures a Backend.
type BackendConfig struct {
	Driver string      `mapstructure:"driver"`
	File   FileConfig  `mapstructure:"file"`
	Redis  RedisConfig `mapstructure:"redis"`
	S3     S3Config    `mapstructure:"s3"`
}

// NewBackend builds the backend named by cfg.Driver.
func NewBackend(ctx context.Context, cfg BackendConfig) (Backend, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileBackend(cfg.File)
	case DriverRedis:
		return NewRedisBackend(ctx, cfg.Redis)
	case DriverS3:
		return NewS3Backend(ctx, cfg.S3)
	case DriverMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown persist driver %q", cfg.Driver)
	}
}

// MemoryBackend keeps the document in process memory. Nothing survives a
// restart; it exists for tests and throwaway deployments.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Name() string { return DriverMemory }

func (m *MemoryBackend) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryBackend) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves reports how many times Save has been called.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
