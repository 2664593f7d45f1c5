package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberSeesPublish(t *testing.T) {
	value := New(1)
	sub := value.Subscribe()

	select {
	case <-sub.Changed():
		t.Fatal("changed fired before publish")
	default:
	}

	require.True(t, value.Publish(2))

	select {
	case <-sub.Changed():
	case <-time.After(time.Second):
		t.Fatal("changed did not fire")
	}

	got, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, 2, got)

	select {
	case <-sub.Changed():
		t.Fatal("changed fired again without publish")
	default:
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	value := New("a")
	first := value.Subscribe()
	second := value.Subscribe()

	value.Publish("b")

	got, ok := first.Next()
	require.True(t, ok)
	assert.Equal(t, "b", got)

	select {
	case <-second.Changed():
	default:
		t.Fatal("second subscriber lost the change observed by the first")
	}
}

func TestCoalescesIntermediateValues(t *testing.T) {
	value := New(0)
	sub := value.Subscribe()

	value.Publish(1)
	value.Publish(2)
	value.Publish(3)

	got, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCloseWakesSubscribersAndRejectsPublish(t *testing.T) {
	value := New(7)
	sub := value.Subscribe()

	value.Close()
	value.Close()

	<-sub.Changed()
	got, ok := sub.Next()
	assert.False(t, ok)
	assert.Equal(t, 7, got)
	assert.False(t, value.Publish(8))
	assert.True(t, value.Closed())

	<-sub.Changed()
}
