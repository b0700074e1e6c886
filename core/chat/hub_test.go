package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func recv(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(Topic("subj1"))
	defer sub.Cancel()

	hub.Publish(Topic("subj1"), Message{ID: "m1", SubjectID: "subj1"})
	msg := recv(t, sub)
	assert.Equal(t, "m1", msg.ID)
}

func TestHubTopicIsolation(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(Topic("subj1"))
	defer sub.Cancel()

	hub.Publish(Topic("subj2"), Message{ID: "m1", SubjectID: "subj2"})

	select {
	case msg := <-sub.C:
		t.Errorf("received message %q from another topic", msg.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDoubleSubscribeDuplicatesDelivery(t *testing.T) {
	// re-subscribing the same topic before cancelling the first duplicates
	// delivery; pairing is the caller's responsibility
	hub := NewHub()
	sub1 := hub.Subscribe(Topic("subj1"))
	sub2 := hub.Subscribe(Topic("subj1"))
	defer sub1.Cancel()
	defer sub2.Cancel()

	hub.Publish(Topic("subj1"), Message{ID: "m1"})
	assert.Equal(t, "m1", recv(t, sub1).ID)
	assert.Equal(t, "m1", recv(t, sub2).ID)
}

func TestHubCancel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(Topic("subj1"))
	sub.Cancel()
	sub.Cancel() // idempotent

	// closed channel
	_, ok := <-sub.C
	assert.False(t, ok)

	// no longer delivered to; must not panic
	hub.Publish(Topic("subj1"), Message{ID: "m1"})
}

func TestHubSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe(Topic("subj1"))
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriptionBuffer+10; i++ {
			hub.Publish(Topic("subj1"), Message{ID: "m"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
