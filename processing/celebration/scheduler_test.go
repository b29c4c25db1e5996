package celebration

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialScheduler_RunsInOrder(t *testing.T) {
	s := NewSerialScheduler()
	defer s.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		s.Do(func() { got = append(got, i) })
	}
	s.Wait()

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestSerialScheduler_ConcurrentSubmitters(t *testing.T) {
	s := NewSerialScheduler()
	defer s.Close()

	count := 0
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Do(func() { count++ })
			}
		}()
	}
	wg.Wait()
	s.Wait()

	assert.Equal(t, 400, count)
}

func TestSerialScheduler_NestedDo(t *testing.T) {
	s := NewSerialScheduler()
	defer s.Close()

	var order []string
	s.Do(func() {
		order = append(order, "outer")
		s.Do(func() { order = append(order, "inner") })
	})
	s.Wait()
	s.Wait()

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestSerialScheduler_CloseTwice(t *testing.T) {
	s := NewSerialScheduler()
	s.Close()
	s.Close()
	s.Wait()
}
