package report

import (
	"errors"
	"sync"
	"testing"

	"nft-engine-sol/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink 记录所有回调，测试专用
type recordSink struct {
	mu        sync.Mutex
	progress  [][2]int
	successes []string
	errors    []string
}

func (s *recordSink) ReportProgress(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, [2]int{completed, total})
}

func (s *recordSink) ReportSuccess(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes = append(s.successes, msg)
}

func (s *recordSink) ReportError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

func addr(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	return p
}

func TestReporter_Aggregation(t *testing.T) {
	sink := &recordSink{}
	r := NewReporter("batch", 4, sink)

	r.Progress(1, 4)
	r.AddSuccess(addr(1), "owner-a")
	r.Progress(2, 4)
	r.AddFailure(addr(2), errors.New("rpc timeout"), false)
	r.Progress(3, 4)
	r.AddSkipped(addr(3))
	r.Progress(4, 4)
	r.AddSuccess(addr(4), "owner-b")

	out := r.Finish()
	assert.Equal(t, 4, out.Total)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.Successes, 2)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "rpc timeout", out.Failures[0].Err)
	assert.False(t, out.FullSuccess())

	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, sink.progress)
	// 有失败时终态走 ReportError
	assert.NotEmpty(t, sink.errors)
	assert.Empty(t, sink.successes)
}

func TestReporter_FullSuccessSummary(t *testing.T) {
	sink := &recordSink{}
	r := NewReporter("batch", 1, sink)
	r.AddSuccess(addr(9), "sig")
	out := r.Finish()

	assert.True(t, out.FullSuccess())
	require.Len(t, sink.successes, 1)
	assert.Contains(t, sink.successes[0], "success=1")
}

func TestReporter_UnknownFlagPreserved(t *testing.T) {
	r := NewReporter("batch", 1)
	r.AddFailure(addr(5), errors.New("confirmation timeout"), true)
	out := r.Finish()
	require.Len(t, out.Failures, 1)
	assert.True(t, out.Failures[0].Unknown)
}

// observerSink 同时实现 Sink 与 ItemObserver
type observerSink struct {
	recordSink
	items []ItemRecord
}

func (s *observerSink) ObserveItem(rec ItemRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, rec)
}

// 实现 ItemObserver 的 sink 收到带批次标识的逐项终态
func TestReporter_ItemObserver(t *testing.T) {
	sink := &observerSink{}
	r := NewReporter("burn", 3, sink)

	r.AddSuccess(addr(1), "sig-1")
	r.AddFailure(addr(2), errors.New("boom"), true)
	r.AddSkipped(addr(3))

	require.Len(t, sink.items, 3)
	assert.Equal(t, "burn", sink.items[0].Batch)
	assert.Equal(t, StatusSuccess, sink.items[0].Status)
	assert.Equal(t, "sig-1", sink.items[0].Signature)
	assert.Equal(t, StatusFailed, sink.items[1].Status)
	assert.True(t, sink.items[1].Unknown)
	assert.Equal(t, StatusSkipped, sink.items[2].Status)
}

func TestReporter_FinishReturnsCopy(t *testing.T) {
	r := NewReporter("batch", 2)
	r.AddSuccess(addr(1), "a")
	out := r.Finish()
	r.AddSuccess(addr(2), "b")
	assert.Len(t, out.Successes, 1, "Finish 返回的应是副本")
}
