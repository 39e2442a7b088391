package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

// LogSubscription delivers matching logs over a channel until cancelled.
// It polls FilterLogs rather than holding a websocket subscription, so it
// works against plain HTTP RPC endpoints.
type LogSubscription struct {
	logs   chan types.Log
	cancel context.CancelFunc
	once   sync.Once
}

// Logs returns the delivery channel. It is closed after Unsubscribe.
func (s *LogSubscription) Logs() <-chan types.Log {
	return s.logs
}

// Unsubscribe stops polling and closes the log channel.
func (s *LogSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// SubscribeLogs starts a polled log subscription for the given query.
// The interval defaults to 5 seconds when zero.
func (c *Client) SubscribeLogs(ctx context.Context, query ethereum.FilterQuery, interval time.Duration) (*LogSubscription, error) {
	if interval == 0 {
		interval = 5 * time.Second
	}

	start, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &LogSubscription{
		logs:   make(chan types.Log, 64),
		cancel: cancel,
	}

	go func() {
		defer close(sub.logs)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Resume from the block after the last one we scanned, so a log is
		// delivered at most once.
		next := start + 1

		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
			}

			head, err := c.backend.BlockNumber(subCtx)
			if err != nil || head < next {
				continue
			}

			q := query
			q.FromBlock = new(big.Int).SetUint64(next)
			q.ToBlock = new(big.Int).SetUint64(head)

			logs, err := c.backend.FilterLogs(subCtx, q)
			if err != nil {
				if c.logger != nil {
					c.logger.ComponentWarn(logging.ComponentChain, "log poll failed", zap.Error(err))
				}
				continue
			}

			for _, lg := range logs {
				select {
				case sub.logs <- lg:
				case <-subCtx.Done():
					return
				}
			}
			next = head + 1
		}
	}()

	return sub, nil
}
