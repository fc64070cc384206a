package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/clock"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/config"
)

func TestClock(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 10, Total: 100, Interval: .5})
	assert.Equal(t, int32(10), c.InternalStep)
	assert.Equal(t, int32(110), c.END_STEP)
	assert.Equal(t, 5.0, c.T)

	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
	assert.Equal(t, 5.5, c.T)

	c.Init()
	assert.Equal(t, int32(10), c.InternalStep)
	assert.Equal(t, 5.0, c.T)
}

func TestClockString(t *testing.T) {
	c := clock.New(config.ControlStep{Start: 0, Total: 10, Interval: 1})
	c.T = 3661
	assert.Equal(t, "01:01:01", c.String())
	hour, minute, second := c.GetHourMinuteSecond()
	assert.Equal(t, 1, hour)
	assert.Equal(t, 1, minute)
	assert.Equal(t, 1.0, second)
}
