package goadsio

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrpasztoradam/goadsio/internal/ads"
)

// Symbol is a named PLC variable with a lazily-acquired server handle.
// Instances are cached per client, so repeated lookups of the same name
// share one handle.
type Symbol struct {
	client *Client
	Name   string

	mu     sync.Mutex
	info   *ads.SymbolEntry
	handle *uint32
}

// SymbolByName returns the cached symbol for name, creating it on first
// use. No server traffic happens until the symbol is initialized or read.
func (c *Client) SymbolByName(name string) *Symbol {
	c.symbolsMu.Lock()
	defer c.symbolsMu.Unlock()
	if s, ok := c.symbols[name]; ok {
		return s
	}
	s := &Symbol{client: c, Name: name}
	c.symbols[name] = s
	return s
}

// SymbolByIndex would address a symbol by raw index group/offset. Symbols
// here are resolved by name only.
func (c *Client) SymbolByIndex(indexGroup, indexOffset uint32) (*Symbol, error) {
	return nil, fmt.Errorf("%w: symbols are addressed by name, not by index group 0x%04X", ErrNotSupported, indexGroup)
}

// Initialize fetches the symbol entry and acquires the server handle. It is
// idempotent; later calls are no-ops while the handle is held.
func (s *Symbol) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Symbol) initLocked(ctx context.Context) error {
	if s.handle != nil {
		return nil
	}
	if s.info == nil {
		info, err := s.client.GetSymbolInfoByName(ctx, s.Name)
		if err != nil {
			return err
		}
		s.info = info
	}
	handle, err := s.client.GetSymbolHandleByName(ctx, s.Name)
	if err != nil {
		return err
	}
	s.handle = &handle
	s.client.log.Debug("symbol initialized", "symbol", s.Name, "handle", handle, "type", s.info.DataType.String())
	return nil
}

// Info returns the symbol entry, fetching it if necessary.
func (s *Symbol) Info(ctx context.Context) (*SymbolEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		info, err := s.client.GetSymbolInfoByName(ctx, s.Name)
		if err != nil {
			return nil, err
		}
		s.info = info
	}
	return s.info, nil
}

// Handle returns the acquired server handle; ok is false before
// initialization and after release.
func (s *Symbol) Handle() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0, false
	}
	return *s.handle, true
}

// ReadBytes reads the symbol's raw value.
func (s *Symbol) ReadBytes(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if err := s.initLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	handle := *s.handle
	size := s.info.Size
	s.mu.Unlock()

	return s.client.GetValueByHandle(ctx, handle, size)
}

// Read reads the symbol and decodes it according to its declared data type.
// Multi-element regions decode to slices; single elements are unwrapped.
// STRING values are returned NUL-trimmed; values of undecodable types come
// back as the raw bytes.
func (s *Symbol) Read(ctx context.Context) (any, error) {
	data, err := s.ReadBytes(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	dataType := s.info.DataType
	s.mu.Unlock()

	value, err := DecodeSymbolValue(dataType, data)
	if err != nil {
		// Structured or vendor-specific types stay raw.
		return data, nil
	}
	return value, nil
}

// DecodeSymbolValue interprets raw symbol bytes according to the declared
// data type. Multi-element regions decode to slices; single elements are
// unwrapped. STRING values come back NUL-trimmed; a buffer with no NUL at
// all stays raw bytes.
func DecodeSymbolValue(dt DataType, data []byte) (any, error) {
	value, err := ads.DecodeValue(dt, data)
	if err != nil {
		return nil, err
	}
	if dt == ads.TypeString {
		if raw, ok := value.([]byte); ok {
			if s, terminated := stringFromPLC(raw); terminated {
				return s, nil
			}
			return raw, nil
		}
	}
	return value, nil
}

// stringFromPLC truncates a STRING buffer at its NUL terminator. terminated
// is false when the buffer carries no NUL at all.
func stringFromPLC(raw []byte) (string, bool) {
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i]), true
		}
	}
	return string(raw), false
}

// WriteBytes writes the symbol's raw value.
func (s *Symbol) WriteBytes(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if err := s.initLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	handle := *s.handle
	s.mu.Unlock()

	return s.client.WriteValueByHandle(ctx, handle, data)
}

// Notification returns the push notification monitoring this symbol's
// region. The symbol is initialized first if needed.
func (s *Symbol) Notification(ctx context.Context) (*Notification, error) {
	s.mu.Lock()
	if err := s.initLocked(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	info := s.info
	s.mu.Unlock()

	return s.client.NotificationByIndex(NotificationSettings{
		IndexGroup:  info.IndexGroup,
		IndexOffset: info.IndexOffset,
		Length:      info.Size,
	}), nil
}

// Release returns the server handle. Safe to call repeatedly; a symbol can
// be re-initialized afterwards.
func (s *Symbol) Release(ctx context.Context) error {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		return nil
	}
	handle := *s.handle
	s.handle = nil
	s.mu.Unlock()

	return s.client.ReleaseHandle(ctx, handle)
}
