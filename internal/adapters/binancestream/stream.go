// Package binancestream adapts the Binance spot WebSocket kline feed to the
// price-streaming port. It drives the dashboard's live price channel; the
// REST fetchers remain the source of truth for request/response endpoints.
package binancestream

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"velocitysol/internal/domain"
	"velocitysol/internal/ports"
)

const (
	defaultSymbol         = "SOLUSDT"
	defaultInterval       = "1m"
	defaultReconnectDelay = time.Second
	defaultMaxReconnects  = 5
)

// Config holds configuration specific to the Binance stream adapter.
type Config struct {
	Symbol               string
	Interval             string
	Logger               ports.Logger
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// Streamer implements ports.PriceStreamer over the public spot kline stream.
// No API keys are needed for market-data streams.
type Streamer struct {
	symbol               string
	interval             string
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// New creates a new Binance stream adapter.
func New(cfg Config) (*Streamer, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance streamer")
	}
	if cfg.Symbol == "" {
		cfg.Symbol = defaultSymbol
	}
	if cfg.Interval == "" {
		cfg.Interval = defaultInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = defaultMaxReconnects
	}
	return &Streamer{
		symbol:               cfg.Symbol,
		interval:             cfg.Interval,
		logger:               cfg.Logger,
		reconnectDelay:       cfg.ReconnectDelay,
		maxReconnectAttempts: cfg.MaxReconnectAttempts,
	}, nil
}

// StreamPrices starts the kline WebSocket stream and invokes handler with a
// price tick for every kline event. The returned doneCh closes when the
// stream (including reconnection attempts) has fully stopped; sending on
// stopCh shuts it down.
func (s *Streamer) StreamPrices(ctx context.Context, handler func(tick *domain.PriceTick), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error) {
	op := "StreamPrices"
	wsCtx, cancelWs := context.WithCancel(ctx)

	wsHandler := func(event *binance.WsKlineEvent) {
		tick, terr := translateKlineEvent(event)
		if terr != nil {
			s.logger.Error(wsCtx, terr, op+": failed to translate kline event")
			return
		}
		handler(tick)
	}

	wsErrHandler := func(werr error) {
		s.logger.Warn(wsCtx, op+": websocket error reported", map[string]interface{}{"error": werr})
		errHandler(werr)
	}

	go func() {
		defer cancelWs()

		attempt := 0
		for {
			select {
			case <-wsCtx.Done():
				return
			default:
				innerDoneCh, innerStopCh, connectErr := binance.WsKlineServe(s.symbol, s.interval, wsHandler, wsErrHandler)
				if connectErr != nil {
					attempt++
					if attempt >= s.maxReconnectAttempts {
						s.logger.Error(wsCtx, connectErr, op+": max reconnection attempts exceeded, giving up", map[string]interface{}{"symbol": s.symbol, "maxAttempts": s.maxReconnectAttempts})
						return
					}
					delay := s.reconnectDelay * time.Duration(1<<uint(attempt-1))
					s.logger.Info(wsCtx, op+": connection failed, retrying", map[string]interface{}{"symbol": s.symbol, "attempt": attempt, "delay": delay.String()})
					select {
					case <-time.After(delay):
						continue
					case <-wsCtx.Done():
						return
					}
				}

				s.logger.Info(wsCtx, op+": websocket connection established", map[string]interface{}{"symbol": s.symbol, "interval": s.interval})
				attempt = 0

				select {
				case <-innerDoneCh:
					s.logger.Warn(wsCtx, op+": websocket closed unexpectedly, reconnecting", map[string]interface{}{"symbol": s.symbol})
				case <-wsCtx.Done():
					select {
					case innerStopCh <- struct{}{}:
					default:
					}
					return
				}
			}
		}
	}()

	doneCh = make(chan struct{})
	stopCh = make(chan struct{})

	go func() {
		select {
		case <-stopCh:
			cancelWs()
		case <-wsCtx.Done():
		}
	}()

	go func() {
		<-wsCtx.Done()
		close(doneCh)
	}()

	return doneCh, stopCh, nil
}

func translateKlineEvent(event *binance.WsKlineEvent) (*domain.PriceTick, error) {
	if event == nil {
		return nil, fmt.Errorf("received nil kline event")
	}
	price, err := strconv.ParseFloat(event.Kline.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse close price %q: %w", event.Kline.Close, err)
	}
	volume, err := strconv.ParseFloat(event.Kline.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse volume %q: %w", event.Kline.Volume, err)
	}
	return &domain.PriceTick{
		Symbol: event.Symbol,
		Price:  price,
		Volume: volume,
		Time:   time.UnixMilli(event.Time),
	}, nil
}
