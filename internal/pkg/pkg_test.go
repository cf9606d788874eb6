package pkg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file.txt", "my%20file.txt"},
		{"a+b.txt", "a%2Bb.txt"},
		{"a*b~c.txt", "a*b%7Ec.txt"},
		{"100%2A.txt", "100%252A.txt"},
		{"x-y_z.tar.gz", "x-y_z.tar.gz"},
		{"보고서 1.hwp", "%EB%B3%B4%EA%B3%A0%EC%84%9C%201.hwp"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, EncodeFilename(tc.in), tc.in)
	}
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("my file.txt")
	assert.Equal(t, `attachment; filename="my%20file.txt"; filename*=UTF-8''my%20file.txt`, got)
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("a-secret", "r-secret", time.Minute, time.Hour)

	pair, err := issuer.GeneratePair(7, "alice", "USER")
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "USER", claims.Role)

	refresh, err := issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", refresh.Username)
}

func TestTokenIssuerRejectsSwappedTokens(t *testing.T) {
	issuer := NewTokenIssuer("same", "same", time.Minute, time.Hour)
	pair, err := issuer.GeneratePair(1, "bob", "USER")
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestTokenIssuerExpired(t *testing.T) {
	issuer := NewTokenIssuer("a", "r", time.Minute, time.Hour)
	issuer.accessTTL = -time.Minute

	pair, err := issuer.GeneratePair(1, "bob", "USER")
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewPostEventProducerRequiresBrokers(t *testing.T) {
	_, err := NewPostEventProducer(PostEventConfig{Topic: "t"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewPostEventProducer(PostEventConfig{Brokers: []string{"k:9092"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	p, err := NewPostEventProducer(PostEventConfig{Brokers: []string{"k:9092"}, Topic: "board.events"})
	require.NoError(t, err)
	assert.Equal(t, "board.events", p.Topic())
	require.NoError(t, p.Close())
}

func TestSendPostEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &PostEventProducer{writer: w, topic: "board.events"}
	ctx := context.Background()

	require.NoError(t, p.SendPostEvent(ctx, "post.created", 42, []byte(`{"id":42}`)))
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, `{"id":42}`, string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventTypeHeader, msg.Headers[0].Key)
	assert.Equal(t, "post.created", string(msg.Headers[0].Value))

	assert.ErrorIs(t, p.SendPostEvent(ctx, "post.created", 0, []byte("x")), ErrInvalidArgument)
	assert.ErrorIs(t, p.SendPostEvent(ctx, "", 1, []byte("x")), ErrInvalidArgument)
	assert.ErrorIs(t, p.SendPostEvent(ctx, "post.created", 1, nil), ErrInvalidArgument)
	assert.Len(t, w.msgs, 1, "invalid events never reach the writer")

	w.err = errors.New("leader not available")
	err := p.SendPostEvent(ctx, "post.deleted", 7, []byte("{}"))
	assert.ErrorContains(t, err, "post 7")
	assert.ErrorIs(t, err, w.err)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
