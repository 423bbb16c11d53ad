package framework

import (
	"errors"
	"testing"

	"github.com/launchdarkly/sandbox-contract-tests/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	events []string
}

func (r *recordingTestLogger) TestStarted(id TestID) {
	r.events = append(r.events, "start "+id.String())
}

func (r *recordingTestLogger) TestError(id TestID, err error) {
	r.events = append(r.events, "error "+id.String()+": "+err.Error())
}

func (r *recordingTestLogger) TestFinished(id TestID, failed bool, debugOutput logging.CapturedOutput) {
	if failed {
		r.events = append(r.events, "failed "+id.String())
	} else {
		r.events = append(r.events, "passed "+id.String())
	}
}

func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.events = append(r.events, "skipped "+id.String()+": "+reason)
}

func TestRunRecordsPassFailAndSkip(t *testing.T) {
	logger := &recordingTestLogger{}
	results := Run(nil, logger, func(c *Context) {
		c.Run("pass", func(c *Context) {})
		c.Run("fail", func(c *Context) {
			c.Errorf("bad %d", 1)
			c.Errorf("worse")
		})
		c.Run("skip", func(c *Context) {
			c.SkipWithReason("not today")
			c.Errorf("never reached")
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Tests, 3)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "fail", results.Failures[0].TestID.String())
	assert.Len(t, results.Failures[0].Errors, 2)

	passed, failed, skipped := results.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)

	assert.Equal(t, []string{
		"start pass", "passed pass",
		"start fail", "error fail: bad 1", "error fail: worse", "failed fail",
		"start skip", "skipped skip: not today",
	}, logger.events)
}

func TestFailNowStopsTheTest(t *testing.T) {
	reached := false
	results := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			require.Fail(c, "stop here")
			reached = true
		})
	})
	assert.False(t, reached)
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "stop here")
}

func TestFailNowWithoutMessage(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) { c.FailNow() })
	})
	require.Len(t, results.Failures, 1)
	assert.EqualError(t, results.Failures[0].Errors[0], "test failed with no failure message")
}

func TestUnexpectedPanicIsFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) { panic(errors.New("kaboom")) })
		c.Run("b", func(c *Context) {})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test: kaboom")
	assert.Len(t, results.Tests, 2)
}

func TestNestedIDsAndFailureIsNotPropagated(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("outer", func(c *Context) {
			assert.Equal(t, "outer", c.ID().String())
			c.Run("inner", func(c *Context) {
				assert.Equal(t, []string{"outer", "inner"}, c.ID().Path)
				c.Errorf("inner failed")
			})
			assert.False(t, c.Failed())
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "outer/inner", results.Failures[0].TestID.String())
	// inner finishes before outer
	assert.Equal(t, "outer/inner", results.Tests[0].TestID.String())
	assert.Equal(t, "outer", results.Tests[1].TestID.String())
}

func TestFilterSkipsWithoutRunning(t *testing.T) {
	ran := map[string]bool{}
	filter := func(id TestID) bool { return id.String() != "b" }
	results := Run(filter, nil, func(c *Context) {
		for _, name := range []string{"a", "b", "c"} {
			name := name
			c.Run(name, func(c *Context) { ran[name] = true })
		}
	})
	assert.Equal(t, map[string]bool{"a": true, "c": true}, ran)
	_, _, skipped := results.Counts()
	assert.Equal(t, 1, skipped)
	assert.True(t, results.OK())
}

func TestDeferRunsInReverseOrderEvenAfterFailure(t *testing.T) {
	var order []int
	Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Defer(func() { order = append(order, 1) })
			c.Defer(func() { order = append(order, 2) })
			c.FailNow()
		})
	})
	assert.Equal(t, []int{2, 1}, order)
}

func TestPanicInCleanupIsFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Defer(func() { panic("cleanup broke") })
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "cleanup broke")
}

func TestDebugOutputIsPassedToLoggerOnFinish(t *testing.T) {
	var captured logging.CapturedOutput
	logger := finishCapture(func(out logging.CapturedOutput) { captured = out })
	Run(nil, logger, func(c *Context) {
		c.Run("a", func(c *Context) {
			c.Debug("value was %d", 42)
			c.DebugLogger().Printf("from client")
		})
	})
	require.Len(t, captured, 2)
	assert.Equal(t, "value was 42", captured[0].Message)
	assert.Equal(t, "from client", captured[1].Message)
}

type finishCapture func(logging.CapturedOutput)

func (f finishCapture) TestStarted(TestID)         {}
func (f finishCapture) TestError(TestID, error)    {}
func (f finishCapture) TestSkipped(TestID, string) {}
func (f finishCapture) TestFinished(_ TestID, _ bool, out logging.CapturedOutput) {
	f(out)
}

func TestReformatErrorDropsTestifyTrace(t *testing.T) {
	err := errors.New("\n\tError Trace:\tfoo.go:12\n\t            \tbar.go:3\n\tError:      \tNot equal\n\tMessages:   \tcontext  ")
	assert.Equal(t, "\tError:      \tNot equal\n\tMessages:   \tcontext", reformatError(err).Error())

	assert.Equal(t, "plain", reformatError(errors.New("plain")).Error())
}

func TestTestIDPlusDoesNotAlias(t *testing.T) {
	base := TestID{}.Plus("a")
	x := base.Plus("x")
	y := base.Plus("y")
	assert.Equal(t, "a/x", x.String())
	assert.Equal(t, "a/y", y.String())
	assert.Equal(t, "a", base.String())
}

func TestTestFailureError(t *testing.T) {
	f := TestFailure{ID: TestID{Path: []string{"a", "b"}}, Err: errors.New("oops")}
	assert.Equal(t, "[a/b]: oops", f.Error())
}
