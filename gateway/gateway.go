// Package gateway exposes a goadsio client over HTTP and WebSocket. It
// translates JSON requests into symbol reads, writes, and device
// notifications so non-Go consumers can talk to a TwinCAT runtime.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/mrpasztoradam/goadsio"
)

// Gateway provides JSON-based operations over a goadsio client
type Gateway struct {
	client    *goadsio.Client
	subs      *SubscriptionManager
	config    *Config
	log       goadsio.Logger
	startTime time.Time
}

// NewGateway creates a new gateway instance
func NewGateway(client *goadsio.Client, config *Config, log goadsio.Logger) *Gateway {
	return &Gateway{
		client:    client,
		subs:      NewSubscriptionManager(client, config.Gateway.MaxSubscriptions, log),
		config:    config,
		log:       log,
		startTime: time.Now(),
	}
}

// connectionError maps client errors caused by a down PLC link to a 503;
// other errors pass through for per-endpoint handling.
func connectionError(err error, operation string) *HTTPError {
	ce := goadsio.ClassifyError(err, operation)
	if ce == nil {
		return nil
	}
	switch ce.Category {
	case goadsio.ErrorCategoryNetwork, goadsio.ErrorCategoryState:
		return NewPLCConnectionError(err.Error())
	}
	return nil
}

// ReadSymbol reads a single symbol value
func (g *Gateway) ReadSymbol(ctx context.Context, symbolName string) (*SymbolValueResponse, error) {
	sym := g.client.SymbolByName(symbolName)
	value, err := sym.Read(ctx)
	if err != nil {
		if connErr := connectionError(err, "read"); connErr != nil {
			return nil, connErr
		}
		return &SymbolValueResponse{
			Success: false,
			Symbol:  symbolName,
			Error:   err.Error(),
		}, nil
	}

	info, _ := sym.Info(ctx)
	typeName := ""
	if info != nil {
		typeName = info.DataType.String()
	}

	return &SymbolValueResponse{
		Success: true,
		Symbol:  symbolName,
		Value:   value,
		Type:    typeName,
	}, nil
}

// BatchRead reads multiple symbols
func (g *Gateway) BatchRead(ctx context.Context, symbolNames []string) (*BatchReadResponse, error) {
	if len(symbolNames) > g.config.Gateway.MaxBatchSize {
		return nil, NewBatchSizeExceededError(len(symbolNames), g.config.Gateway.MaxBatchSize)
	}

	data := make(map[string]interface{})
	errors := make(map[string]string)

	for _, symbolName := range symbolNames {
		value, err := g.client.SymbolByName(symbolName).Read(ctx)
		if err != nil {
			errors[symbolName] = err.Error()
		} else {
			data[symbolName] = value
		}
	}

	return &BatchReadResponse{
		Success: len(errors) == 0,
		Data:    data,
		Errors:  errors,
	}, nil
}

// WriteSymbol writes a single symbol value, encoding it according to the
// symbol's declared PLC type
func (g *Gateway) WriteSymbol(ctx context.Context, symbolName string, value interface{}) (*WriteSymbolResponse, error) {
	if err := g.writeSymbol(ctx, symbolName, value); err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			return nil, httpErr
		}
		if connErr := connectionError(err, "write"); connErr != nil {
			return nil, connErr
		}
		return &WriteSymbolResponse{
			Success: false,
			Symbol:  symbolName,
			Error:   err.Error(),
		}, nil
	}

	return &WriteSymbolResponse{
		Success: true,
		Symbol:  symbolName,
	}, nil
}

func (g *Gateway) writeSymbol(ctx context.Context, symbolName string, value interface{}) error {
	sym := g.client.SymbolByName(symbolName)
	info, err := sym.Info(ctx)
	if err != nil {
		return err
	}

	data, err := encodeValue(symbolName, info.DataType, info.Size, value)
	if err != nil {
		return err
	}

	return sym.WriteBytes(ctx, data)
}

// BatchWrite writes multiple symbols
func (g *Gateway) BatchWrite(ctx context.Context, writes map[string]interface{}) (*BatchWriteResponse, error) {
	if len(writes) > g.config.Gateway.MaxBatchSize {
		return nil, NewBatchSizeExceededError(len(writes), g.config.Gateway.MaxBatchSize)
	}

	results := make(map[string]bool)
	errors := make(map[string]string)

	for symbolName, value := range writes {
		if err := g.writeSymbol(ctx, symbolName, value); err != nil {
			results[symbolName] = false
			errors[symbolName] = err.Error()
		} else {
			results[symbolName] = true
		}
	}

	return &BatchWriteResponse{
		Success: len(errors) == 0,
		Results: results,
		Errors:  errors,
	}, nil
}

// GetSymbolInfo retrieves metadata for a specific symbol
func (g *Gateway) GetSymbolInfo(ctx context.Context, symbolName string) (*SymbolInfo, error) {
	entry, err := g.client.GetSymbolInfoByName(ctx, symbolName)
	if err != nil {
		return nil, NewSymbolNotFoundError(symbolName)
	}

	return &SymbolInfo{
		Name:        entry.Name,
		Type:        entry.TypeName,
		Size:        entry.Size,
		IndexGroup:  entry.IndexGroup,
		IndexOffset: entry.IndexOffset,
		Comment:     entry.Comment,
	}, nil
}

// GetHealth returns the health status
func (g *Gateway) GetHealth() *HealthResponse {
	connected := g.client.Connected()
	status := "ok"
	if !connected {
		status = "degraded"
	}
	return &HealthResponse{
		Status:    status,
		Connected: connected,
		Timestamp: time.Now(),
	}
}

// GetInfo returns server and PLC connection information
func (g *Gateway) GetInfo(ctx context.Context) (*InfoResponse, error) {
	return &InfoResponse{
		Target:        g.config.PLC.Target,
		AMSNetID:      g.config.PLC.AMSNetID,
		SourceNetID:   g.config.PLC.SourceNetID,
		AMSPort:       g.config.PLC.AMSPort,
		Connected:     g.client.Connected(),
		Subscriptions: g.subs.Count(),
		ServerUptime:  time.Since(g.startTime).String(),
	}, nil
}

// GetVersion retrieves the runtime version information
func (g *Gateway) GetVersion(ctx context.Context) *VersionResponse {
	info, err := g.client.DeviceInfo(ctx)
	if err != nil {
		return &VersionResponse{
			Success: false,
			Error:   err.Error(),
		}
	}

	version := fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.VersionBuild)
	return &VersionResponse{
		Success:      true,
		Name:         info.Name,
		MajorVersion: info.MajorVersion,
		MinorVersion: info.MinorVersion,
		VersionBuild: info.VersionBuild,
		Version:      version,
	}
}

// GetState retrieves the current PLC state
func (g *Gateway) GetState(ctx context.Context) *StateResponse {
	state, err := g.client.ReadState(ctx)
	if err != nil {
		return &StateResponse{
			Success: false,
			Error:   err.Error(),
		}
	}

	return &StateResponse{
		Success:      true,
		ADSState:     uint16(state.ADSState),
		ADSStateName: state.ADSState.String(),
		DeviceState:  state.DeviceState,
	}
}

// Control executes a PLC control command (start, stop, reset)
func (g *Gateway) Control(ctx context.Context, command string) *ControlResponse {
	var adsState goadsio.State

	switch command {
	case "start", "run":
		adsState = goadsio.StateRun
	case "stop":
		adsState = goadsio.StateStop
	case "reset":
		adsState = goadsio.StateReset
	default:
		return &ControlResponse{
			Success: false,
			Command: command,
			Error:   fmt.Sprintf("unknown command: %s (supported: start, stop, reset)", command),
		}
	}

	err := g.client.WriteControl(ctx, adsState, 0, nil)
	if err != nil {
		return &ControlResponse{
			Success: false,
			Command: command,
			Error:   err.Error(),
		}
	}

	return &ControlResponse{
		Success: true,
		Command: command,
	}
}
