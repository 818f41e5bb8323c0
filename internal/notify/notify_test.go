package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishFunc func(ctx context.Context, topic string, payload any) error

func (f publishFunc) Publish(ctx context.Context, topic string, payload any) error {
	return f(ctx, topic, payload)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisPublisher_NilClientIsNoop(t *testing.T) {
	p := NewRedisPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), TopicCommentCreated, map[string]string{"a": "b"}))
}

func TestRedisPublisher_PublishAndSubscribe(t *testing.T) {
	_, rdb := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan []byte, 1)
	require.NoError(t, Subscribe(ctx, rdb, TopicCommentCreated, func(payload []byte) {
		received <- payload
	}))

	p := NewRedisPublisher(rdb)
	require.NoError(t, p.Publish(ctx, TopicCommentCreated, map[string]any{
		"commentId":       "c1",
		"parentCommentId": nil,
	}))

	select {
	case raw := <-received:
		var got map[string]any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "c1", got["commentId"])
		assert.Contains(t, got, "parentCommentId")
		assert.Nil(t, got["parentCommentId"])
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisher_ServerDown(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	err := NewRedisPublisher(rdb).Publish(context.Background(), TopicCommentCreated, "x")
	assert.Error(t, err)
}

func TestRedisPublisher_UnencodablePayload(t *testing.T) {
	_, rdb := newRedis(t)
	err := NewRedisPublisher(rdb).Publish(context.Background(), TopicCommentCreated, make(chan int))
	assert.Error(t, err)
}

func TestEmitter_Outcomes(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		e := NewEmitter(publishFunc(func(context.Context, string, any) error { return nil }), time.Second, zerolog.Nop())
		out := e.Emit(context.Background(), TopicCommentCreated, nil)
		assert.True(t, out.Delivered)
		assert.NoError(t, out.Err)
		assert.Equal(t, TopicCommentCreated, out.Topic)
	})

	t.Run("failure is reported, not raised", func(t *testing.T) {
		boom := errors.New("broker down")
		e := NewEmitter(publishFunc(func(context.Context, string, any) error { return boom }), time.Second, zerolog.Nop())
		out := e.Emit(context.Background(), TopicCommentCreated, nil)
		assert.False(t, out.Delivered)
		assert.ErrorIs(t, out.Err, boom)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		e := NewEmitter(publishFunc(func(context.Context, string, any) error { panic("kaboom") }), time.Second, zerolog.Nop())
		out := e.Emit(context.Background(), TopicCommentCreated, nil)
		assert.False(t, out.Delivered)
		assert.Error(t, out.Err)
	})

	t.Run("timeout bounds a slow publisher", func(t *testing.T) {
		e := NewEmitter(publishFunc(func(ctx context.Context, _ string, _ any) error {
			<-ctx.Done()
			return ctx.Err()
		}), 20*time.Millisecond, zerolog.Nop())
		out := e.Emit(context.Background(), TopicCommentCreated, nil)
		assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	})
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	var mu sync.Mutex
	var topics []string
	pub := publishFunc(func(_ context.Context, topic string, _ any) error {
		mu.Lock()
		defer mu.Unlock()
		topics = append(topics, topic)
		return nil
	})

	d := NewDispatcher(NewEmitter(pub, time.Second, zerolog.Nop()), 4, zerolog.Nop())
	for i := 0; i < 3; i++ {
		assert.True(t, d.Dispatch(TopicCommentCreated, i))
	}
	require.NoError(t, d.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, topics, 3)
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	pub := publishFunc(func(context.Context, string, any) error {
		started <- struct{}{}
		<-release
		return nil
	})

	d := NewDispatcher(NewEmitter(pub, 0, zerolog.Nop()), 1, zerolog.Nop())
	outcomes := make(chan Outcome, 4)
	d.OnOutcome = func(o Outcome) { outcomes <- o }

	require.True(t, d.Dispatch(TopicCommentCreated, 1))
	<-started
	assert.False(t, d.Dispatch(TopicCommentCreated, 2))

	dropped := <-outcomes
	assert.ErrorIs(t, dropped.Err, ErrDropped)

	close(release)
	require.NoError(t, d.Close(context.Background()))

	delivered := <-outcomes
	assert.True(t, delivered.Delivered)
}

func TestDispatcher_Close(t *testing.T) {
	t.Run("rejects after close", func(t *testing.T) {
		d := NewDispatcher(NewEmitter(publishFunc(func(context.Context, string, any) error { return nil }), 0, zerolog.Nop()), 2, zerolog.Nop())
		require.NoError(t, d.Close(context.Background()))
		assert.False(t, d.Dispatch(TopicCommentCreated, nil))
		assert.NoError(t, d.Close(context.Background()), "second close is a no-op")
	})

	t.Run("honours the close deadline", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		d := NewDispatcher(NewEmitter(publishFunc(func(context.Context, string, any) error {
			<-release
			return nil
		}), 0, zerolog.Nop()), 1, zerolog.Nop())
		require.True(t, d.Dispatch(TopicCommentCreated, nil))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
	})
}
