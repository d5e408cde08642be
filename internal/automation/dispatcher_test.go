package automation

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/testutils"
	"jarvis/pkg/jarvistypes"
)

const kindTest jarvistypes.CommandKind = "test"

func newTestDispatcher(t *testing.T, env *testutils.FakeEnvironment, opts ...Option) *Dispatcher {
	t.Helper()
	opts = append([]Option{WithTimeUnit(time.Microsecond)}, opts...)
	d := NewDispatcher(env, opts...)
	t.Cleanup(d.Close)
	return d
}

// recorder is a test handler that logs the targets it runs, optionally blocking on release.
type recorder struct {
	mu      sync.Mutex
	order   []string
	release chan struct{}
	fail    map[string]error
}

func newRecorder() *recorder {
	return &recorder{release: make(chan struct{}), fail: map[string]error{}}
}

func (r *recorder) handle(_ context.Context, cmd jarvistypes.StructuredCommand) (jarvistypes.AutomationResponse, error) {
	if cmd.Action == "block" {
		<-r.release
	}
	if cmd.Action == "panic" {
		panic("kaboom")
	}
	r.mu.Lock()
	r.order = append(r.order, cmd.Target)
	err := r.fail[cmd.Target]
	r.mu.Unlock()
	if err != nil {
		return jarvistypes.AutomationResponse{}, err
	}
	return jarvistypes.Succeeded("ok "+cmd.Target, nil), nil
}

func (r *recorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func testCmd(target, action string) jarvistypes.StructuredCommand {
	return jarvistypes.StructuredCommand{Kind: kindTest, Target: target, Action: action}
}

// startBlocked runs a blocking command in the background and waits until it is executing.
func startBlocked(t *testing.T, d *Dispatcher, target string) <-chan jarvistypes.AutomationResponse {
	t.Helper()
	done := make(chan jarvistypes.AutomationResponse, 1)
	go func() { done <- d.Execute(context.Background(), testCmd(target, "block")) }()
	require.Eventually(t, d.IsExecuting, time.Second, time.Millisecond)
	return done
}

func TestDispatcher_QueuesWhileExecuting(t *testing.T) {
	notifier := &testutils.RecordingNotifier{}
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000), WithNotifier(notifier))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	done := startBlocked(t, d, "first")

	ctx := context.Background()
	testutils.AssertSuccess(t, d.Execute(ctx, testCmd("second", "")), "Command queued for execution")
	testutils.AssertSuccess(t, d.Execute(ctx, testCmd("third", "")), "Command queued for execution")

	status := d.QueueStatus()
	assert.Equal(t, 2, status.Length)
	assert.Equal(t, []string{"test", "test"}, status.Commands)

	close(rec.release)
	testutils.AssertSuccess(t, <-done, "ok first")
	d.Wait()

	assert.Equal(t, []string{"first", "second", "third"}, rec.Order())
	assert.Equal(t, 0, d.QueueStatus().Length)
	assert.False(t, d.IsExecuting())
	assert.Equal(t, []string{"JARVIS: ok second", "JARVIS: ok third"}, notifier.Notifications())
}

func TestDispatcher_HighPriorityBypassesQueue(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	done := startBlocked(t, d, "first")

	urgent := testCmd("urgent", "")
	urgent.Priority = jarvistypes.PriorityHigh
	testutils.AssertSuccess(t, d.Execute(context.Background(), urgent), "ok urgent")
	assert.True(t, d.IsExecuting())

	close(rec.release)
	<-done
	d.Wait()
	assert.Equal(t, []string{"urgent", "first"}, rec.Order())
}

func TestDispatcher_HandlerErrorStopsQueue(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	rec.fail["first"] = errors.New("boom")
	d.RegisterHandler(kindTest, rec.handle)

	done := startBlocked(t, d, "first")
	testutils.AssertSuccess(t, d.Execute(context.Background(), testCmd("second", "")), "Command queued for execution")

	close(rec.release)
	testutils.AssertFailure(t, <-done, "Automation error: boom")
	d.Wait()

	assert.False(t, d.IsExecuting())
	assert.Equal(t, []string{"first"}, rec.Order())
	assert.Equal(t, 1, d.QueueStatus().Length)
}

func TestDispatcher_PanicBecomesFailure(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	ctx := context.Background()
	testutils.AssertFailure(t, d.Execute(ctx, testCmd("x", "panic")), "Automation error: kaboom")
	assert.False(t, d.IsExecuting())

	testutils.AssertSuccess(t, d.Execute(ctx, testCmd("after", "")), "ok after")
}

func TestDispatcher_ChainedCommandsRunInOrder(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	cmd := testCmd("root", "")
	cmd.ChainedCommands = []jarvistypes.StructuredCommand{testCmd("child-1", ""), testCmd("child-2", "")}

	start := time.Now()
	testutils.AssertSuccess(t, d.Execute(context.Background(), cmd), "ok root")
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(2*chainDelay*time.Microsecond))
	assert.Equal(t, []string{"root", "child-1", "child-2"}, rec.Order())
	assert.Len(t, d.History(), 1)
}

func TestDispatcher_ChainErrorIsFatal(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	rec.fail["child-1"] = errors.New("chain broke")
	d.RegisterHandler(kindTest, rec.handle)

	cmd := testCmd("root", "")
	cmd.ChainedCommands = []jarvistypes.StructuredCommand{testCmd("child-1", ""), testCmd("child-2", "")}

	testutils.AssertFailure(t, d.Execute(context.Background(), cmd), "Automation error: chain broke")
	assert.Equal(t, []string{"root", "child-1"}, rec.Order())
}

func TestDispatcher_Disabled(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	done := startBlocked(t, d, "first")
	d.Execute(context.Background(), testCmd("queued", ""))
	require.Equal(t, 1, d.QueueStatus().Length)

	d.SetEnabled(false)
	assert.False(t, d.Enabled())
	assert.Equal(t, 0, d.QueueStatus().Length)
	testutils.AssertFailure(t, d.Execute(context.Background(), testCmd("late", "")), "Automation is currently disabled")

	close(rec.release)
	<-done
	d.Wait()
	assert.Equal(t, []string{"first"}, rec.Order())

	d.SetEnabled(true)
	testutils.AssertSuccess(t, d.Execute(context.Background(), testCmd("again", "")), "ok again")
}

func TestDispatcher_ClearQueue(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	done := startBlocked(t, d, "first")
	d.Execute(context.Background(), testCmd("second", ""))
	d.ClearQueue()

	close(rec.release)
	<-done
	d.Wait()
	assert.Equal(t, []string{"first"}, rec.Order())
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	resp := d.Execute(context.Background(), jarvistypes.StructuredCommand{Kind: "teleport"})
	testutils.AssertFailure(t, resp, "Unknown automation command: teleport")
}

func TestDispatcher_HistoryIsBounded(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	for i := 0; i < historyLimit+5; i++ {
		d.Execute(context.Background(), testCmd(strconv.Itoa(i), ""))
	}
	history := d.History()
	require.Len(t, history, historyLimit)
	assert.Equal(t, "5", history[0].Command.Target)
	assert.Equal(t, "ok 104", history[len(history)-1].Response.Message)
}

func TestDispatcher_ExecutionTimeIsSet(t *testing.T) {
	d := newTestDispatcher(t, testutils.NewFakeEnvironment(800, 4000))
	rec := newRecorder()
	d.RegisterHandler(kindTest, rec.handle)

	cmd := testCmd("root", "")
	cmd.ChainedCommands = []jarvistypes.StructuredCommand{testCmd("child", "")}
	resp := d.Execute(context.Background(), cmd)
	assert.Greater(t, int64(resp.ExecutionTime), int64(0))
}
