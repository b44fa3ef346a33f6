// Package contract implements the ledger writer over the marketplace contract.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	gethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinwei908/eth-market-course/business/marketplace/app"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

const (
	tracerName = "marketplace/contract"
	meterName  = "marketplace/contract"
)

// Ensure Writer implements LedgerWriter.
var _ app.LedgerWriter = (*Writer)(nil)

// WriterConfig holds transaction settlement timing.
type WriterConfig struct {
	ReceiptInterval time.Duration // receipt poll cadence
	ReceiptTimeout  time.Duration // give up waiting after this long
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		ReceiptInterval: 2 * time.Second,
		ReceiptTimeout:  2 * time.Minute,
	}
}

// writerMetrics holds OTEL metric instruments.
type writerMetrics struct {
	txTotal    metric.Int64Counter
	txReverted metric.Int64Counter
	settleTime metric.Float64Histogram
}

// Writer submits marketplace transactions through the wallet connection and
// blocks until they settle. The wallet node signs, so the writer never sees
// a private key.
type Writer struct {
	conn   *walletApp.ConnectionState
	config WriterConfig
	abi    abi.ABI
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *writerMetrics
}

// NewWriter creates a ledger writer bound to the wallet connection.
func NewWriter(conn *walletApp.ConnectionState, cfg WriterConfig, log logger.LoggerInterface) (*Writer, error) {
	parsedABI, err := abi.JSON(strings.NewReader(MarketplaceWriteABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}

	w := &Writer{
		conn:   conn,
		config: cfg,
		abi:    parsedABI,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return w, nil
}

func (w *Writer) initMetrics() error {
	meter := otel.Meter(meterName)
	w.metrics = &writerMetrics{}
	var err error

	w.metrics.txTotal, err = meter.Int64Counter(
		"marketplace_transactions_total",
		metric.WithDescription("Marketplace transactions submitted"),
	)
	if err != nil {
		return err
	}

	w.metrics.txReverted, err = meter.Int64Counter(
		"marketplace_transactions_reverted_total",
		metric.WithDescription("Marketplace transactions that reverted"),
	)
	if err != nil {
		return err
	}

	w.metrics.settleTime, err = meter.Float64Histogram(
		"marketplace_settle_time_ms",
		metric.WithDescription("Time from submission to mined receipt in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// send packs a method call, submits it and waits for the receipt.
func (w *Writer) send(ctx context.Context, method string, from common.Address, value *big.Int, args ...any) (app.Settlement, error) {
	ctx, span := w.tracer.Start(ctx, "marketplace."+method,
		trace.WithAttributes(attribute.String("from", from.Hex())),
	)
	defer span.End()

	w.metrics.txTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	if !w.conn.Ready() {
		return app.Settlement{}, apperror.New(apperror.CodeContractNotBound)
	}

	callData, err := w.abi.Pack(method, args...)
	if err != nil {
		return app.Settlement{}, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	start := time.Now()
	txHash, err := w.conn.Provider.SendTransaction(ctx, walletApp.TxMessage{
		From:  from,
		To:    w.conn.Contract,
		Value: value,
		Data:  callData,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return app.Settlement{}, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext(method))
	}

	span.SetAttributes(attribute.String("tx", txHash.Hex()))
	w.logger.Debug(ctx, "transaction submitted", "method", method, "tx", txHash.Hex())

	receipt, err := w.waitReceipt(ctx, txHash)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return app.Settlement{}, err
	}

	w.metrics.settleTime.Record(ctx, float64(time.Since(start).Milliseconds()))

	if receipt.Status == types.ReceiptStatusFailed {
		w.metrics.txReverted.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		span.SetStatus(codes.Error, "reverted")
		return app.Settlement{}, apperror.New(apperror.CodeTransactionRevert,
			apperror.WithContext(fmt.Sprintf("%s tx %s", method, txHash.Hex())))
	}

	span.SetStatus(codes.Ok, "settled")
	return app.Settlement{TxHash: txHash, GasUsed: receipt.GasUsed}, nil
}

// waitReceipt polls until the transaction is mined or the timeout passes.
func (w *Writer) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, w.config.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(w.config.ReceiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.conn.Provider.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil:
			return receipt, nil
		case errors.Is(err, gethereum.NotFound):
			// not mined yet
		default:
			return nil, apperror.New(apperror.CodeTransactionFailed,
				apperror.WithCause(err),
				apperror.WithContext("receipt lookup for "+txHash.Hex()))
		}

		select {
		case <-ctx.Done():
			return nil, apperror.New(apperror.CodeReceiptTimeout,
				apperror.WithContext("tx "+txHash.Hex()))
		case <-ticker.C:
		}
	}
}

// PurchaseCourse buys a course for the first time.
func (w *Writer) PurchaseCourse(ctx context.Context, from common.Address, courseID [16]byte, proof common.Hash, value *big.Int) (app.Settlement, error) {
	return w.send(ctx, "purchaseCourse", from, value, courseID, [32]byte(proof))
}

// RepurchaseCourse re-buys a deactivated course.
func (w *Writer) RepurchaseCourse(ctx context.Context, from common.Address, hash common.Hash, value *big.Int) (app.Settlement, error) {
	return w.send(ctx, "repurchaseCourse", from, value, [32]byte(hash))
}

// ActivateCourse marks a purchase as activated.
func (w *Writer) ActivateCourse(ctx context.Context, from common.Address, hash common.Hash) (app.Settlement, error) {
	return w.send(ctx, "activateCourse", from, nil, [32]byte(hash))
}

// DeactivateCourse refunds and deactivates a purchase.
func (w *Writer) DeactivateCourse(ctx context.Context, from common.Address, hash common.Hash) (app.Settlement, error) {
	return w.send(ctx, "deactivateCourse", from, nil, [32]byte(hash))
}

// Withdraw moves funds out of the contract.
func (w *Writer) Withdraw(ctx context.Context, from common.Address, amount *big.Int) (app.Settlement, error) {
	return w.send(ctx, "withdraw", from, nil, amount)
}

// EmergencyWithdraw drains the stopped contract.
func (w *Writer) EmergencyWithdraw(ctx context.Context, from common.Address) (app.Settlement, error) {
	return w.send(ctx, "emergencyWithdraw", from, nil)
}
