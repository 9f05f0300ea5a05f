package queue_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/pricing"
	"github.com/noah-isme/supermarket/internal/queue"
	"github.com/noah-isme/supermarket/internal/receipt"
)

type recordingClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: queue.DefaultQueue, Type: task.Type()}, nil
}

func sampleReceipt() *receipt.Receipt {
	r := receipt.New()
	toothbrush := catalog.Product{Name: "toothbrush", Unit: catalog.Each}
	r.AddProduct(toothbrush, 3, 0.99, 2.97)
	r.AddDiscount(pricing.Discount{Product: toothbrush, Description: "3 for 2", Amount: 0.99})
	return r
}

func TestPublisherEnqueuesReceipt(t *testing.T) {
	client := &recordingClient{}
	pub := queue.Publisher{Client: client, MaxRetry: 3, Timeout: time.Minute}
	r := sampleReceipt()

	require.NoError(t, pub.EnqueueReceipt(context.Background(), r))
	require.Len(t, client.tasks, 1)
	require.Equal(t, queue.TypeReceiptPrint, client.tasks[0].Type())
	require.Contains(t, string(client.tasks[0].Payload()), r.ID.String())

	var types []asynq.OptionType
	for _, o := range client.opts[0] {
		types = append(types, o.Type())
	}
	require.ElementsMatch(t, []asynq.OptionType{asynq.QueueOpt, asynq.TaskIDOpt, asynq.MaxRetryOpt, asynq.TimeoutOpt}, types)
}

func TestPublisherDuplicateIsNotAnError(t *testing.T) {
	pub := queue.Publisher{Client: &recordingClient{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, pub.EnqueueReceipt(context.Background(), sampleReceipt()))
}

func TestPublisherPropagatesFailures(t *testing.T) {
	pub := queue.Publisher{Client: &recordingClient{err: errors.New("dial tcp: refused")}}
	require.ErrorContains(t, pub.EnqueueReceipt(context.Background(), sampleReceipt()), "refused")

	require.Error(t, queue.Publisher{}.EnqueueReceipt(context.Background(), sampleReceipt()))
}

func TestPrintHandler(t *testing.T) {
	var out bytes.Buffer
	h := &queue.PrintHandler{Printer: receipt.Printer{Columns: receipt.DefaultColumns}, Out: &out, Logger: zerolog.Nop()}

	task, err := queue.NewReceiptPrintTask(sampleReceipt())
	require.NoError(t, err)
	require.NoError(t, queue.NewServeMux(h).ProcessTask(context.Background(), task))
	require.Contains(t, out.String(), "3 for 2(toothbrush)")
	require.Contains(t, out.String(), "Total: ")
}

func TestPrintHandlerSkipsRetryOnMalformedPayload(t *testing.T) {
	h := &queue.PrintHandler{Out: &bytes.Buffer{}, Logger: zerolog.Nop()}
	err := h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeReceiptPrint, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeInspector struct {
	archived []*asynq.TaskInfo
	ran      []string
}

func (f *fakeInspector) ListArchivedTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return f.archived, nil
}

func (f *fakeInspector) RunTask(_ string, id string) error {
	for _, t := range f.archived {
		if t.ID == id {
			f.ran = append(f.ran, id)
			return nil
		}
	}
	return asynq.ErrTaskNotFound
}

func TestAdminHandler(t *testing.T) {
	insp := &fakeInspector{archived: []*asynq.TaskInfo{{ID: "abc", Type: queue.TypeReceiptPrint, Retried: 5, MaxRetry: 5, LastErr: "printer jammed"}}}
	h := &queue.AdminHandler{Inspector: insp}
	r := chi.NewRouter()
	r.Get("/archived", h.ListArchived)
	r.Post("/archived/{id}/run", h.Replay)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/archived", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "printer jammed")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/archived?page=0", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archived/abc/run", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"abc"}, insp.ran)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/archived/zzz/run", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
