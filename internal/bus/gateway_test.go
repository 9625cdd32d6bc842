package bus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"airg/internal/reqctx"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type recordingChannel struct {
	mu     sync.Mutex
	sent   []published
	err    error
	closed int
}

func (r *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (r *recordingChannel) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func TestGatewayPublish(t *testing.T) {
	ch := &recordingChannel{}
	gw := NewGateway(ch, "airg.work")

	ctx := reqctx.WithRequestID(context.Background(), "req-7")
	require.NoError(t, gw.Publish(ctx, SubjectBundleMake, BundleMessage{ThemeID: "t1", ProjectID: "p1", K: DefaultBundleSize}))

	require.Len(t, ch.sent, 1)
	got := ch.sent[0]
	require.Equal(t, "airg.work", got.exchange)
	require.Equal(t, "bundle.make", got.key)
	require.Equal(t, "application/json", got.msg.ContentType)
	require.Equal(t, uint8(amqp.Persistent), got.msg.DeliveryMode)
	require.Equal(t, "req-7", got.msg.CorrelationId)
	require.NotEmpty(t, got.msg.MessageId)
	require.JSONEq(t, `{"themeId":"t1","projectId":"p1","k":10}`, string(got.msg.Body))
}

func TestGatewayPublishOrder(t *testing.T) {
	ch := &recordingChannel{}
	gw := NewGateway(ch, "airg.work")

	for _, subject := range []string{SubjectEmbedUpsert, SubjectClusterRun, SubjectLabelRun} {
		require.NoError(t, gw.Publish(context.Background(), subject, ProjectMessage{ProjectID: "p1"}))
	}

	var keys []string
	for _, p := range ch.sent {
		keys = append(keys, p.key)
		var msg ProjectMessage
		require.NoError(t, json.Unmarshal(p.msg.Body, &msg))
		require.Equal(t, "p1", msg.ProjectID)
	}
	require.Equal(t, []string{"embed.upsert", "cluster.run", "label.run"}, keys)
}

func TestGatewayPublishError(t *testing.T) {
	boom := errors.New("channel closed by broker")
	gw := NewGateway(&recordingChannel{err: boom}, "airg.work")

	err := gw.Publish(context.Background(), SubjectExportMake, ExportMessage{ProjectID: "p1", Type: "docx"})
	require.ErrorIs(t, err, boom)
}

func TestGatewayClose(t *testing.T) {
	ch := &recordingChannel{}
	gw := NewGateway(ch, "airg.work")

	require.NoError(t, gw.Close())
	require.NoError(t, gw.Close())
	require.Equal(t, 1, ch.closed)

	err := gw.Publish(context.Background(), SubjectLabelRun, ProjectMessage{ProjectID: "p1"})
	require.ErrorIs(t, err, ErrClosed)
}

func TestDiscardNeverFails(t *testing.T) {
	var pub Publisher = Discard{Logger: zerolog.Nop()}
	require.NoError(t, pub.Publish(context.Background(), SubjectSummaryMake, SummaryMessage{ThemeID: "t1"}))
}
