package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for realtime message")
	}
	return Message{}
}

func expectNoMessage(t *testing.T, ch <-chan Message) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversOnlyToRoomMembers(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	room := CourseRoom(uuid.New())

	member := hub.Connect(uuid.New())
	outsider := hub.Connect(uuid.New())
	hub.Join(member, room)
	hub.Join(outsider, CourseRoom(uuid.New()))

	hub.Broadcast(Message{Room: room, Event: EventChatMessageCreated, Data: map[string]any{"text": "hi"}})

	got := recvMessage(t, member.Outbound, time.Second)
	if got.Event != EventChatMessageCreated {
		t.Fatalf("event: want=%s got=%s", EventChatMessageCreated, got.Event)
	}
	expectNoMessage(t, outsider.Outbound)
}

func TestHubPreservesOrderWithinRoom(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	room := CourseRoom(uuid.New())
	c := hub.Connect(uuid.New())
	hub.Join(c, room)

	for i := 1; i <= 3; i++ {
		hub.Broadcast(Message{Room: room, Event: EventChatMessageCreated, Data: i})
	}
	for i := 1; i <= 3; i++ {
		if got := recvMessage(t, c.Outbound, time.Second); got.Data != i {
			t.Fatalf("seq %d: got %v", i, got.Data)
		}
	}
}

func TestHubRemovesEmptyRooms(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	roomA := CourseRoom(uuid.New())
	roomB := CourseRoom(uuid.New())

	c1 := hub.Connect(uuid.New())
	c2 := hub.Connect(uuid.New())
	hub.Join(c1, roomA)
	hub.Join(c1, roomB)
	hub.Join(c2, roomA)
	if hub.RoomCount() != 2 || hub.RoomSize(roomA) != 2 {
		t.Fatalf("setup: rooms=%d sizeA=%d", hub.RoomCount(), hub.RoomSize(roomA))
	}

	hub.Leave(c1, roomB)
	if hub.RoomCount() != 1 {
		t.Fatalf("leave: want 1 room got %d", hub.RoomCount())
	}

	hub.Disconnect(c1)
	if hub.RoomSize(roomA) != 1 {
		t.Fatalf("disconnect: want 1 member got %d", hub.RoomSize(roomA))
	}
	hub.Disconnect(c2)
	if hub.RoomCount() != 0 {
		t.Fatalf("all gone: want 0 rooms got %d", hub.RoomCount())
	}

	select {
	case _, ok := <-c1.Outbound:
		if ok {
			t.Fatalf("outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for outbound close")
	}
	hub.Disconnect(c1)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	room := CourseRoom(uuid.New())
	c := hub.Connect(uuid.New())
	hub.Join(c, room)

	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(Message{Room: room, Event: EventChatMessageCreated, Data: i})
	}
	if len(c.Outbound) != outboundBuffer {
		t.Fatalf("buffer: want %d got %d", outboundBuffer, len(c.Outbound))
	}
}

func TestHubCloseDisconnectsEveryone(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	c := hub.Connect(uuid.New())
	hub.Join(c, CourseRoom(uuid.New()))

	hub.Close()
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatalf("client not disconnected on close")
	}
	if hub.RoomCount() != 0 {
		t.Fatalf("rooms left after close: %d", hub.RoomCount())
	}
	if hub.Connect(uuid.New()) != nil {
		t.Fatalf("closed hub accepted a connection")
	}
}

func TestServeSSEStreamsRoomMessages(t *testing.T) {
	hub := NewHub(mustTestLogger(t))
	room := CourseRoom(uuid.New())
	joined := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := hub.Connect(uuid.New())
		hub.Join(c, room)
		defer hub.Disconnect(c)
		close(joined)
		hub.ServeSSE(w, r, c)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: %q", ct)
	}

	<-joined
	hub.Broadcast(Message{Room: room, Event: EventChatMessageCreated, Data: map[string]any{"text": "hello"}})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		lines = append(lines, line)
	}
	if lines[0] != "event: "+string(EventChatMessageCreated) {
		t.Fatalf("event line: %q", lines[0])
	}
	if !strings.Contains(lines[1], `"text":"hello"`) {
		t.Fatalf("data line: %q", lines[1])
	}
}
