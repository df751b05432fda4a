package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/btfind/internal/device"
	"github.com/stretchr/testify/suite"
)

// scriptedOperation captures the completion callback so tests decide when,
// and how often, completion is signaled.
type scriptedOperation struct {
	startStatus device.Status
	syncStatus  *device.Status // complete before Start returns
	delay       time.Duration
	finalStatus device.Status
	manual      bool

	mu       sync.Mutex
	complete device.CompleteFunc
	started  chan struct{}
	starts   atomic.Int32
	released atomic.Bool
}

func newScriptedOperation() *scriptedOperation {
	return &scriptedOperation{started: make(chan struct{}, 1)}
}

func (o *scriptedOperation) Describe() string { return "scripted operation" }

func (o *scriptedOperation) Start(complete device.CompleteFunc) device.Status {
	o.starts.Add(1)
	o.mu.Lock()
	o.complete = complete
	o.mu.Unlock()
	o.started <- struct{}{}

	if !o.startStatus.IsSuccess() {
		return o.startStatus
	}
	if o.syncStatus != nil {
		complete(*o.syncStatus)
		return device.StatusSuccess
	}
	if !o.manual {
		go func() {
			time.Sleep(o.delay)
			complete(o.finalStatus)
		}()
	}
	return device.StatusSuccess
}

func (o *scriptedOperation) Release() { o.released.Store(true) }

// signal invokes the captured completion callback from another goroutine.
func (o *scriptedOperation) signal(status device.Status) {
	o.mu.Lock()
	complete := o.complete
	o.mu.Unlock()
	done := make(chan struct{})
	go func() {
		defer close(done)
		complete(status)
	}()
	<-done
}

type runResult struct {
	status  device.Status
	err     error
	elapsed time.Duration
}

type AdapterTestSuite struct {
	suite.Suite
	adapter *Adapter
}

func (suite *AdapterTestSuite) SetupTest() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	suite.adapter = NewAdapter(logger)
}

func (suite *AdapterTestSuite) runAsync(op Operation, timeout time.Duration) <-chan runResult {
	ch := make(chan runResult, 1)
	go func() {
		start := time.Now()
		status, err := suite.adapter.Run(context.Background(), op, timeout)
		ch <- runResult{status: status, err: err, elapsed: time.Since(start)}
	}()
	return ch
}

func (suite *AdapterTestSuite) TestRun_ReturnsAsSoonAsCompletionFires() {
	// GOAL: Verify Run returns right after the completion callback, not at the deadline
	//
	// TEST SCENARIO: Operation completes after 50ms, timeout 5s → returns success well before 5s

	op := newScriptedOperation()
	op.delay = 50 * time.Millisecond

	start := time.Now()
	status, err := suite.adapter.Run(context.Background(), op, 5*time.Second)
	elapsed := time.Since(start)

	suite.Require().NoError(err, "run MUST succeed")
	suite.Equal(device.StatusSuccess, status)
	suite.GreaterOrEqual(elapsed, 50*time.Millisecond, "run MUST wait for the completion")
	suite.Less(elapsed, 2*time.Second, "run MUST NOT wait for the deadline")
	suite.True(op.released.Load(), "operation MUST be released")
}

func (suite *AdapterTestSuite) TestRun_CompletionBeforeStartReturns() {
	// GOAL: Verify a completion delivered inside Start is not missed
	//
	// TEST SCENARIO: Start completes synchronously → Run returns immediately with the status

	op := newScriptedOperation()
	ok := device.StatusSuccess
	op.syncStatus = &ok

	start := time.Now()
	_, err := suite.adapter.Run(context.Background(), op, 5*time.Second)

	suite.Require().NoError(err, "run MUST succeed")
	suite.Less(time.Since(start), time.Second, "run MUST NOT block on an already completed operation")
}

func (suite *AdapterTestSuite) TestRun_TimesOutWhenNeverCompleted() {
	// GOAL: Verify Run fails with TimeoutError at the deadline
	//
	// TEST SCENARIO: Operation never completes, timeout 100ms → TimeoutError after ~100ms → adapter idle again

	op := newScriptedOperation()
	op.manual = true

	start := time.Now()
	_, err := suite.adapter.Run(context.Background(), op, 100*time.Millisecond)
	elapsed := time.Since(start)

	suite.Require().Error(err, "run MUST fail")
	suite.ErrorIs(err, ErrTimeout, "error MUST be a timeout")
	var te *TimeoutError
	suite.Require().ErrorAs(err, &te)
	suite.Equal(100*time.Millisecond, te.Timeout)
	suite.GreaterOrEqual(elapsed, 100*time.Millisecond)
	suite.Less(elapsed, 2*time.Second)

	_, pending := suite.adapter.Pending()
	suite.False(pending, "adapter MUST be idle after a timeout")
	suite.True(op.released.Load(), "operation MUST be released on timeout")
}

func (suite *AdapterTestSuite) TestRun_RejectsOverlappingOperation() {
	// GOAL: Verify a second Run fails fast and leaves the first one untouched
	//
	// TEST SCENARIO: First run pending → second run → ConcurrentOperationError, second never started →
	// first completes → first caller gets its result

	first := newScriptedOperation()
	first.manual = true
	firstResult := suite.runAsync(first, 5*time.Second)
	<-first.started

	second := newScriptedOperation()
	start := time.Now()
	_, err := suite.adapter.Run(context.Background(), second, 5*time.Second)

	suite.Require().Error(err, "overlapping run MUST fail")
	suite.ErrorIs(err, ErrConcurrentOperation)
	suite.Less(time.Since(start), time.Second, "overlapping run MUST fail immediately")
	suite.Equal(int32(0), second.starts.Load(), "second operation MUST NOT be started")

	_, pending := suite.adapter.Pending()
	suite.True(pending, "first operation MUST still be pending")

	first.signal(device.StatusSuccess)
	res := <-firstResult
	suite.NoError(res.err, "first run MUST receive its completion")
	suite.Equal(device.StatusSuccess, res.status)
}

func (suite *AdapterTestSuite) TestRun_StartFailure() {
	// GOAL: Verify a rejected start fails with StartError carrying the native status

	op := newScriptedOperation()
	op.startStatus = device.StatusNotReady

	status, err := suite.adapter.Run(context.Background(), op, time.Second)

	suite.Require().Error(err)
	suite.ErrorIs(err, ErrStart)
	suite.Equal(device.StatusNotReady, status)
	got, ok := StatusOf(err)
	suite.True(ok)
	suite.Equal(device.StatusNotReady, got)
	suite.Contains(err.Error(), "error starting scripted operation")
	suite.True(op.released.Load(), "operation MUST be released on start failure")
}

func (suite *AdapterTestSuite) TestRun_NonSuccessCompletion() {
	// GOAL: Verify a non-success completion becomes OperationError with status and context

	op := newScriptedOperation()
	op.finalStatus = device.StatusError

	_, err := suite.adapter.Run(context.Background(), op, time.Second)

	suite.Require().Error(err)
	suite.ErrorIs(err, ErrOperation)
	var oe *OperationError
	suite.Require().ErrorAs(err, &oe)
	suite.Equal(device.StatusError, oe.Status)
	suite.Equal("scripted operation", oe.Context)
}

func (suite *AdapterTestSuite) TestRun_LateCompletionIsDiscarded() {
	// GOAL: Verify a completion arriving after a timeout neither panics nor leaks into the next run
	//
	// TEST SCENARIO: Run times out → late completion signaled → next run on the same adapter
	// gets its own result

	late := newScriptedOperation()
	late.manual = true
	_, err := suite.adapter.Run(context.Background(), late, 50*time.Millisecond)
	suite.Require().ErrorIs(err, ErrTimeout)

	next := newScriptedOperation()
	next.manual = true
	nextResult := suite.runAsync(next, 5*time.Second)
	<-next.started

	suite.NotPanics(func() { late.signal(device.StatusError) }, "late completion MUST NOT panic")
	suite.NotPanics(func() { late.signal(device.StatusError) }, "repeated late completion MUST NOT panic")

	_, pending := suite.adapter.Pending()
	suite.True(pending, "late completion MUST NOT complete the next operation")

	next.signal(device.StatusSuccess)
	res := <-nextResult
	suite.NoError(res.err, "next run MUST see its own status")
}

func (suite *AdapterTestSuite) TestRun_DuplicateCompletionKeepsFirstStatus() {
	op := newScriptedOperation()
	op.manual = true
	result := suite.runAsync(op, 5*time.Second)
	<-op.started

	op.signal(device.StatusError)
	op.signal(device.StatusSuccess)

	res := <-result
	suite.ErrorIs(res.err, ErrOperation, "first signaled status MUST win")
	suite.Equal(device.StatusError, res.status)
}

func (suite *AdapterTestSuite) TestRun_ContextCancellation() {
	op := newScriptedOperation()
	op.manual = true

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-op.started
		cancel()
	}()

	_, err := suite.adapter.Run(ctx, op, 0)

	suite.ErrorIs(err, context.Canceled)
	_, pending := suite.adapter.Pending()
	suite.False(pending)
}

func (suite *AdapterTestSuite) TestRun_NoTimeoutWaitsForCompletion() {
	op := newScriptedOperation()
	op.delay = 20 * time.Millisecond

	_, err := suite.adapter.Run(context.Background(), op, 0)

	suite.NoError(err, "zero timeout MUST wait for completion")
}

func (suite *AdapterTestSuite) TestRun_ConcurrentCompletionsAreSafe() {
	// GOAL: Verify many goroutines racing to complete one operation leave exactly one result

	op := newScriptedOperation()
	op.manual = true
	result := suite.runAsync(op, 5*time.Second)
	<-op.started

	op.mu.Lock()
	complete := op.complete
	op.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			complete(device.StatusSuccess)
		}()
	}
	wg.Wait()

	res := <-result
	suite.NoError(res.err)
}

func TestAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(AdapterTestSuite))
}
