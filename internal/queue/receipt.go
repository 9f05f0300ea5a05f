// Package queue moves rendered receipts to background printers over asynq.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/receipt"
)

const (
	// TypeReceiptPrint is the asynq task type carrying a receipt to print.
	TypeReceiptPrint = "receipt:print"
	// DefaultQueue is the asynq queue receipts are published to.
	DefaultQueue = "receipts"
)

// Enqueuer is the subset of *asynq.Client used by Publisher.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewReceiptPrintTask encodes r as a print task.
func NewReceiptPrintTask(r *receipt.Receipt) (*asynq.Task, error) {
	if r == nil {
		return nil, errors.New("queue: receipt is required")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return asynq.NewTask(TypeReceiptPrint, payload), nil
}

// Publisher enqueues receipt print tasks. The receipt ID is used as the task
// ID so a receipt is queued at most once while its task is retained.
type Publisher struct {
	Client   Enqueuer
	Queue    string
	MaxRetry int
	Timeout  time.Duration
}

// EnqueueReceipt publishes r for printing.
func (p Publisher) EnqueueReceipt(ctx context.Context, r *receipt.Receipt) error {
	if p.Client == nil {
		return errors.New("queue: client not configured")
	}
	task, err := NewReceiptPrintTask(r)
	if err != nil {
		return err
	}
	queueName := p.Queue
	if queueName == "" {
		queueName = DefaultQueue
	}
	opts := []asynq.Option{asynq.Queue(queueName), asynq.TaskID(r.ID.String())}
	if p.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(p.MaxRetry))
	}
	if p.Timeout > 0 {
		opts = append(opts, asynq.Timeout(p.Timeout))
	}
	info, err := p.Client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue receipt %s: %w", r.ID, err)
	}
	zerolog.Ctx(ctx).Debug().Str("task_id", info.ID).Str("queue", info.Queue).Msg("receipt print enqueued")
	return nil
}

// PrintHandler renders receipt print tasks to Out.
type PrintHandler struct {
	Printer receipt.Printer
	Out     io.Writer
	Logger  zerolog.Logger

	mu sync.Mutex
}

// ProcessTask implements asynq.Handler. Undecodable payloads are not retried.
func (h *PrintHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var r receipt.Receipt
	if err := json.Unmarshal(t.Payload(), &r); err != nil {
		obs.ObserveReceiptPrint("invalid")
		h.Logger.Error().Err(err).Str("type", t.Type()).Msg("discard malformed receipt task")
		return fmt.Errorf("decode receipt: %v: %w", err, asynq.SkipRetry)
	}
	text := h.Printer.Print(&r)

	h.mu.Lock()
	_, err := io.WriteString(h.Out, text)
	h.mu.Unlock()
	if err != nil {
		obs.ObserveReceiptPrint("error")
		return fmt.Errorf("print receipt %s: %w", r.ID, err)
	}
	obs.ObserveReceiptPrint("ok")
	h.Logger.Info().Str("receipt_id", r.ID.String()).Int("lines", len(r.Items)).Msg("receipt printed")
	return nil
}

// NewServeMux routes receipt print tasks to h.
func NewServeMux(h *PrintHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeReceiptPrint, h)
	return mux
}
