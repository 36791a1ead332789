package eventlog

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthchain/pkg/requestcontext"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func newTestService(opts ...Option) *Service {
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewService(NewInMemoryStore(), opts...)
}

func TestAppendStampsEvent(t *testing.T) {
	svc := newTestService()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	event, err := svc.Append(ctx, KindRecordAdded, "dr-jones", "patient-1", map[string]string{"sequence": "0"})
	require.NoError(t, err)
	assert.NotEqual(t, [16]byte{}, [16]byte(event.ID))
	assert.Equal(t, now, event.Timestamp)
	assert.Equal(t, uint64(0), event.LogIndex)
}

func TestAppendPublishesToSink(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(WithSink(sink))

	_, err := svc.Append(context.Background(), KindAccessGranted, "patient-1", "dr-jones", nil)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, KindAccessGranted, sink.events[0].Kind)
}

func TestActivityForMostRecentFirst(t *testing.T) {
	svc := newTestService()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, kind := range []Kind{KindProviderRequested, KindProviderApproved, KindAccessGranted} {
		ctx := requestcontext.WithTime(context.Background(), base.Add(time.Duration(i)*time.Second))
		_, err := svc.Append(ctx, kind, "dr-jones", "", nil)
		require.NoError(t, err)
	}

	activity, err := svc.ActivityFor(context.Background(), "dr-jones")
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, KindAccessGranted, activity[0].Kind)
	assert.Equal(t, KindProviderApproved, activity[1].Kind)
	assert.Equal(t, KindProviderRequested, activity[2].Kind)
}

func TestActivityForBreaksTimestampTiesByLogIndex(t *testing.T) {
	svc := newTestService()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	first, err := svc.Append(ctx, KindAccessGranted, "patient-1", "dr-jones", nil)
	require.NoError(t, err)
	second, err := svc.Append(ctx, KindRecordAdded, "dr-jones", "patient-1", nil)
	require.NoError(t, err)
	require.Greater(t, second.LogIndex, first.LogIndex)

	activity, err := svc.ActivityFor(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, KindRecordAdded, activity[0].Kind)
	assert.Equal(t, KindAccessGranted, activity[1].Kind)
}
