package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetBackoffTimeStaysWithinBounds(t *testing.T) {
	maximum := 1 * time.Second
	for i := int64(0); i < 70; i++ {
		backoff := GetBackoffTime(i, 1*time.Microsecond, maximum)
		assert.GreaterOrEqual(t, backoff, time.Duration(0), "retry %d", i)
		assert.LessOrEqual(t, backoff, maximum, "retry %d", i)
	}
}

func TestGetBackoffTimeZeroForNoRetries(t *testing.T) {
	assert.Equal(t, time.Duration(0), GetBackoffTime(0, time.Millisecond, time.Second))
	assert.Equal(t, time.Duration(0), GetBackoffTime(-1, time.Millisecond, time.Second))
	assert.Equal(t, time.Duration(0), GetBackoffTime(5, 0, time.Second))
}

func TestGetBackoffTimeConverges(t *testing.T) {
	// with enough retries the backoff reaches the cap for any slot time
	for _, slotTime := range []time.Duration{time.Millisecond, time.Microsecond, time.Nanosecond} {
		reachedCap := false
		for i := int64(1); i < 64; i++ {
			if GetBackoffTime(i, slotTime, time.Second) >= time.Second {
				reachedCap = true
				break
			}
		}
		assert.True(t, reachedCap, "slot time %s never reached the cap", slotTime)
	}
}
