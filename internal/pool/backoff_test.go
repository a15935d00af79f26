package pool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitterBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	capDur := 2 * time.Second

	t.Run("starts at base", func(t *testing.T) {
		assert.Equal(t, base, jitterBackoff(0, base, 2.0, capDur))
		assert.Equal(t, base, jitterBackoff(-time.Second, base, 2.0, capDur))
	})

	t.Run("never exceeds cap", func(t *testing.T) {
		d := base
		for i := 0; i < 20; i++ {
			d = jitterBackoff(d, base, 2.0, capDur)
			assert.LessOrEqual(t, d, capDur)
			assert.GreaterOrEqual(t, d, base)
		}
	})

	t.Run("cap below base returns cap", func(t *testing.T) {
		assert.Equal(t, 50*time.Millisecond, jitterBackoff(base, base, 2.0, 50*time.Millisecond))
	})

	t.Run("zero base falls back to default", func(t *testing.T) {
		d := jitterBackoff(0, 0, 2.0, capDur)
		assert.Greater(t, d, time.Duration(0))
	})

	t.Run("multiplier below one does not shrink", func(t *testing.T) {
		d := jitterBackoff(base, base, 0.5, capDur)
		assert.GreaterOrEqual(t, d, base)
	})
}
