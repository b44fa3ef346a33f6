// Package contract implements the ledger reader over the marketplace contract.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinwei908/eth-market-course/business/courses/app"
	"github.com/jinwei908/eth-market-course/business/courses/domain"
	walletApp "github.com/jinwei908/eth-market-course/business/wallet/app"
	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

const (
	tracerName = "courses/contract"
	meterName  = "courses/contract"
)

// Ensure Reader implements LedgerReader.
var _ app.LedgerReader = (*Reader)(nil)

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	callsTotal metric.Int64Counter
	callErrors metric.Int64Counter
}

// Reader reads ownership records through the wallet connection. The wallet
// provider already wraps RPC traffic in its own circuit breaker, so the
// reader stays a thin codec around pack and unpack.
type Reader struct {
	conn   *walletApp.ConnectionState
	abi    abi.ABI
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a ledger reader bound to the wallet connection.
func NewReader(conn *walletApp.ConnectionState, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(MarketplaceReadABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse marketplace ABI: %w", err)
	}

	r := &Reader{
		conn:   conn,
		abi:    parsedABI,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	r.metrics = &readerMetrics{}
	var err error

	r.metrics.callsTotal, err = meter.Int64Counter(
		"marketplace_read_calls_total",
		metric.WithDescription("Marketplace view calls"),
	)
	if err != nil {
		return err
	}

	r.metrics.callErrors, err = meter.Int64Counter(
		"marketplace_read_errors_total",
		metric.WithDescription("Marketplace view call failures"),
	)
	return err
}

// call packs, executes and unpacks one view method.
func (r *Reader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	ctx, span := r.tracer.Start(ctx, "marketplace."+method)
	defer span.End()

	r.metrics.callsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))

	if !r.conn.Ready() {
		return nil, apperror.New(apperror.CodeContractNotBound)
	}

	callData, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := r.conn.Provider.CallContract(ctx, r.conn.Contract, callData)
	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		span.SetStatus(codes.Error, err.Error())
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(method))
	}

	outputs, err := r.abi.Unpack(method, result)
	if err != nil {
		r.metrics.callErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return outputs, nil
}

// GetCourseByHash returns the raw ownership record for a course hash.
func (r *Reader) GetCourseByHash(ctx context.Context, hash common.Hash) (domain.Record, error) {
	outputs, err := r.call(ctx, "getCourseByHash", [32]byte(hash))
	if err != nil {
		return domain.Record{}, err
	}
	if len(outputs) < 1 {
		return domain.Record{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}

	record := *abi.ConvertType(outputs[0], new(courseRecord)).(*courseRecord)
	return domain.Record{
		ID:    record.Id,
		Price: record.Price,
		Proof: record.Proof,
		Owner: record.Owner,
		State: record.State,
	}, nil
}

// GetCourseCount returns the number of purchase records in the ledger.
func (r *Reader) GetCourseCount(ctx context.Context) (*big.Int, error) {
	outputs, err := r.call(ctx, "getCourseCount")
	if err != nil {
		return nil, err
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	return outputs[0].(*big.Int), nil
}

// GetCourseHashAtIndex returns the course hash stored at a ledger index.
func (r *Reader) GetCourseHashAtIndex(ctx context.Context, index *big.Int) (common.Hash, error) {
	outputs, err := r.call(ctx, "getCourseHashAtIndex", index)
	if err != nil {
		return common.Hash{}, err
	}
	if len(outputs) < 1 {
		return common.Hash{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	return common.Hash(outputs[0].([32]byte)), nil
}

// ContractOwner returns the contract deployer address.
func (r *Reader) ContractOwner(ctx context.Context) (common.Address, error) {
	outputs, err := r.call(ctx, "getContractOwner")
	if err != nil {
		return common.Address{}, err
	}
	if len(outputs) < 1 {
		return common.Address{}, fmt.Errorf("unexpected output length: %d", len(outputs))
	}
	return outputs[0].(common.Address), nil
}
