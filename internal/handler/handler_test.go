package handler

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/config"
	"github.com/sysu-ecnc-dev/job-board/backend/internal/repository"
)

// stubMailPublisher 记录发布到消息队列的邮件，代替真实的 amqp channel
type stubMailPublisher struct {
	published []amqp.Publishing
}

func (s *stubMailPublisher) PublishWithContext(_ context.Context, _ string, _ string, _ bool, _ bool, msg amqp.Publishing) error {
	s.published = append(s.published, msg)
	return nil
}

// stubTokenStore 用内存 map 代替 redis 保存一次性令牌
type stubTokenStore struct {
	values map[string]string
}

func (s *stubTokenStore) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value.(string)
	return redis.NewStatusCmd(ctx)
}

func (s *stubTokenStore) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubTokenStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(s.values, key)
	}
	return redis.NewIntCmd(ctx)
}

func newTestHandlerWithStubs(t *testing.T) (*Handler, sqlmock.Sqlmock, *stubMailPublisher, *stubTokenStore) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Environment = "development"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.SessionExpiration = 168
	cfg.JWT.VerifyEmailExpiration = 24
	cfg.JWT.ResetPasswordExpiration = 1
	cfg.Frontend.BaseURL = "http://localhost:5173"
	cfg.Pagination.DefaultLimit = 10
	cfg.Pagination.MaxLimit = 100
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10
	cfg.Redis.OperationExpiration = 1
	cfg.RabbitMQ.PublishTimeout = 5

	publisher := &stubMailPublisher{}
	store := &stubTokenStore{}

	repo := repository.NewRepository(cfg, db)
	h, err := NewHandler(cfg, repo, publisher, store)
	require.NoError(t, err)

	return h, mock, publisher, store
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	h, mock, _, _ := newTestHandlerWithStubs(t)
	return h, mock
}
