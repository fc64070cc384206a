package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/carjam-sim-oss/utils/scheduler"
)

func TestSchedulerFireOrder(t *testing.T) {
	s := scheduler.New()
	var fired []int
	s.At(2, func() { fired = append(fired, 2) })
	s.At(1, func() { fired = append(fired, 1) })
	s.At(3, func() { fired = append(fired, 3) })
	assert.Equal(t, 3, s.Len())

	s.Fire(0)
	assert.Empty(t, fired)

	s.Fire(2)
	assert.Equal(t, []int{1, 2}, fired)
	assert.Equal(t, 1, s.Len())

	s.Fire(10)
	assert.Equal(t, []int{1, 2, 3}, fired)
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerReentrant(t *testing.T) {
	s := scheduler.New()
	var fired []string
	s.At(1, func() {
		fired = append(fired, "a")
		// 已到期的链式续体在同一次Fire中执行
		s.At(1, func() { fired = append(fired, "b") })
		// 未到期的留到下次
		s.At(5, func() { fired = append(fired, "c") })
	})
	s.Fire(1)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, s.Len())
	s.Fire(5)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
}
