package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"learning_portal/internal/model"
	"learning_portal/internal/util"
	"learning_portal/pkg/realtime"
)

// fakeDoubtAPI SendMessage 会阻塞到 release 收到结果
type fakeDoubtAPI struct {
	doubt   *model.Doubt
	release chan error
	sent    chan string
	status  model.DoubtStatus
}

func newFakeDoubtAPI() *fakeDoubtAPI {
	return &fakeDoubtAPI{
		doubt: &model.Doubt{ID: "d1", Title: "Kinematics", Status: model.DoubtPending, Messages: []model.Message{
			{ID: "m1", Content: "first"},
		}},
		release: make(chan error, 1),
		sent:    make(chan string, 1),
	}
}

func (f *fakeDoubtAPI) SendMessage(ctx context.Context, token, doubtID, content, clientMsgID string) (*model.Message, error) {
	f.sent <- clientMsgID
	if err := <-f.release; err != nil {
		return nil, err
	}
	return &model.Message{ID: "srv-" + clientMsgID[:4], DoubtID: doubtID, Content: content, ClientMsgID: clientMsgID}, nil
}

func (f *fakeDoubtAPI) List(ctx context.Context, token string, query url.Values) ([]model.Doubt, error) {
	return []model.Doubt{*f.doubt}, nil
}

func (f *fakeDoubtAPI) Get(ctx context.Context, token, id string) (*model.Doubt, error) {
	d := *f.doubt
	return &d, nil
}

func (f *fakeDoubtAPI) Create(ctx context.Context, token string, in model.NewDoubt) (*model.Doubt, error) {
	return &model.Doubt{ID: "new", Title: in.Title, Subject: in.Subject}, nil
}

func (f *fakeDoubtAPI) UpdateStatus(ctx context.Context, token, doubtID string, status model.DoubtStatus) (*model.Doubt, error) {
	f.status = status
	return &model.Doubt{ID: doubtID, Status: status}, nil
}

// fakeChannel 单房间的实时频道
type fakeChannel struct {
	mu      sync.Mutex
	joined  map[string]int
	subs    map[string]chan realtime.Event
	cancels map[string]func()
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{joined: map[string]int{}, subs: map[string]chan realtime.Event{}, cancels: map[string]func(){}}
}

func (f *fakeChannel) Join(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined[room]++
}

func (f *fakeChannel) Leave(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined[room]--
}

func (f *fakeChannel) Subscribe(room string) (<-chan realtime.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan realtime.Event, 8)
	f.subs[room] = ch
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			close(ch)
			if f.subs[room] == ch {
				delete(f.subs, room)
			}
		})
	}
	f.cancels[room] = cancel
	return ch, cancel
}

// dropAll 模拟连接被关闭：所有订阅通道关闭
func (f *fakeChannel) dropAll() {
	f.mu.Lock()
	cancels := make([]func(), 0, len(f.cancels))
	for room, c := range f.cancels {
		cancels = append(cancels, c)
		delete(f.cancels, room)
	}
	f.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// fakeChannels 所有设备共用同一个 fakeChannel
type fakeChannels struct {
	ch *fakeChannel
}

func (f fakeChannels) For(*model.Session) RoomChannel { return f.ch }
func (f fakeChannels) Release(string)                 {}
func (f fakeChannels) Close()                         {}

func (f *fakeChannel) push(ev realtime.Event) {
	f.mu.Lock()
	ch := f.subs[ev.Room]
	f.mu.Unlock()
	ch <- ev
}

func newTestRoom(api *fakeDoubtAPI, ch RoomChannel) (*DoubtRoom, chan *model.Doubt) {
	changes := make(chan *model.Doubt, 32)
	sess := &model.Session{DeviceID: "dev", Token: "tok", UserID: "u1", Role: model.Student}
	r := newDoubtRoom(sess, api.doubt, api, ch, func(d *model.Doubt) { changes <- d })
	r.open()
	return r, changes
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestOptimisticSendAppearsImmediatelyThenConfirms(t *testing.T) {
	api := newFakeDoubtAPI()
	room, _ := newTestRoom(api, newFakeChannel())
	defer room.Close()

	done := make(chan *model.Message)
	go func() {
		msg, err := room.Send(context.Background(), "  why is g constant?  ")
		if err != nil {
			t.Error(err)
		}
		done <- msg
	}()
	clientID := <-api.sent

	msgs := room.Messages()
	if len(msgs) != 2 {
		t.Fatalf("temp message not visible: %+v", msgs)
	}
	temp := msgs[1]
	if !temp.Pending || temp.ID != "temp-"+clientID || temp.Content != "why is g constant?" || temp.SenderID != "u1" {
		t.Fatalf("unexpected temp message %+v", temp)
	}

	api.release <- nil
	confirmed := <-done
	msgs = room.Messages()
	if len(msgs) != 2 || msgs[1].ID != confirmed.ID || msgs[1].Pending {
		t.Fatalf("temp not replaced: %+v", msgs)
	}
}

func TestSendFailureRollsBack(t *testing.T) {
	api := newFakeDoubtAPI()
	room, changes := newTestRoom(api, nil)
	defer room.Close()

	api.release <- errors.New("network down")
	go func() { <-api.sent }()
	if _, err := room.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected send error")
	}
	if msgs := room.Messages(); len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Fatalf("temp message not removed: %+v", msgs)
	}
	// 乐观追加 + 回滚各推送一次
	if len(changes) != 2 {
		t.Fatalf("expected 2 pushes, got %d", len(changes))
	}

	if _, err := room.Send(context.Background(), "   "); !util.IsValidation(err) {
		t.Fatalf("empty message should be rejected, got %v", err)
	}
}

func TestRealtimeMessageReplacesTempByClientID(t *testing.T) {
	api := newFakeDoubtAPI()
	ch := newFakeChannel()
	room, _ := newTestRoom(api, ch)
	defer room.Close()

	go room.Send(context.Background(), "ping")
	clientID := <-api.sent

	payload, _ := json.Marshal(model.Message{ID: "srv-1", DoubtID: "d1", Content: "ping", ClientMsgID: clientID})
	ch.push(realtime.Event{Type: EventDoubtMessage, Room: ChannelRoom("d1"), Data: payload})

	waitFor(t, func() bool {
		msgs := room.Messages()
		return len(msgs) == 2 && msgs[1].ID == "srv-1" && !msgs[1].Pending
	})

	// 同一条消息再次到达不重复
	ch.push(realtime.Event{Type: EventDoubtMessage, Room: ChannelRoom("d1"), Data: payload})
	other, _ := json.Marshal(model.Message{ID: "srv-2", DoubtID: "d1", Content: "pong"})
	ch.push(realtime.Event{Type: EventDoubtMessage, Room: ChannelRoom("d1"), Data: other})
	waitFor(t, func() bool { return len(room.Messages()) == 3 })

	api.release <- errors.New("late failure")
}

func TestEchoBeforeSendReturnsIsNotDuplicated(t *testing.T) {
	api := newFakeDoubtAPI()
	ch := newFakeChannel()
	room, _ := newTestRoom(api, ch)
	defer room.Close()

	done := make(chan *model.Message)
	go func() {
		msg, err := room.Send(context.Background(), "hello")
		if err != nil {
			t.Error(err)
		}
		done <- msg
	}()
	clientID := <-api.sent

	// 实时回显先到且不带 clientMsgId
	serverID := "srv-" + clientID[:4]
	payload, _ := json.Marshal(model.Message{ID: serverID, DoubtID: "d1", Content: "hello"})
	ch.push(realtime.Event{Type: EventDoubtMessage, Room: ChannelRoom("d1"), Data: payload})
	waitFor(t, func() bool { return len(room.Messages()) == 3 })

	api.release <- nil
	<-done

	msgs := room.Messages()
	seen := map[string]int{}
	for _, m := range msgs {
		seen[m.ID]++
		if m.Pending {
			t.Fatalf("pending message left behind: %+v", m)
		}
	}
	if len(msgs) != 2 || seen["m1"] != 1 || seen[serverID] != 1 {
		t.Fatalf("messages after send: %+v", msgs)
	}
}

func TestRealtimeDoubtReplacesMessageList(t *testing.T) {
	api := newFakeDoubtAPI()
	ch := newFakeChannel()
	room, _ := newTestRoom(api, ch)

	payload, _ := json.Marshal(model.Doubt{ID: "d1", Status: model.DoubtInProgress, Messages: []model.Message{
		{ID: "m1", Content: "first"}, {ID: "m2", Content: "teacher reply"},
	}})
	ch.push(realtime.Event{Type: EventDoubtUpdated, Room: ChannelRoom("d1"), Data: payload})

	waitFor(t, func() bool {
		snap := room.Snapshot()
		return snap.Status == model.DoubtInProgress && len(snap.Messages) == 2
	})

	room.Close()
	if n := ch.joined[ChannelRoom("d1")]; n != 0 {
		t.Fatalf("room not left, join count %d", n)
	}
	if _, err := room.Send(context.Background(), "after close"); err != util.ErrRoomNotOpen {
		t.Fatalf("send on closed room: %v", err)
	}
}

func TestDoubtServiceOpenSendClose(t *testing.T) {
	api := newFakeDoubtAPI()
	svc := NewDoubtService(api, nil, nil)
	sess := &model.Session{DeviceID: "dev", Token: "tok", UserID: "u1", Role: model.Student}
	ctx := context.Background()

	if _, err := svc.Send(ctx, sess, "d1", "hi"); err != util.ErrRoomNotOpen {
		t.Fatalf("send before open: %v", err)
	}
	d, err := svc.Open(ctx, sess, "d1")
	if err != nil || len(d.Messages) != 1 {
		t.Fatalf("open: %+v %v", d, err)
	}
	if _, err := svc.Open(ctx, sess, "d1"); err != nil {
		t.Fatal(err)
	}

	go func() { <-api.sent; api.release <- nil }()
	if _, err := svc.Send(ctx, sess, "d1", "hi"); err != nil {
		t.Fatal(err)
	}
	msgs, _ := svc.Messages(ctx, sess, "d1")
	if len(msgs) != 2 {
		t.Fatalf("messages %+v", msgs)
	}

	if _, err := svc.UpdateStatus(ctx, sess, "d1", model.DoubtInProgress); err != util.ErrPermissionDenied {
		t.Fatalf("student cannot take a doubt: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, sess, "d1", model.DoubtResolved); err != nil {
		t.Fatal(err)
	}
	if snap, _ := svc.Room("dev", "d1"); snap.Status != model.DoubtResolved {
		t.Fatalf("room status not updated: %s", snap.Status)
	}

	svc.CloseDevice("dev")
	if err := svc.Close("dev", "d1"); err != util.ErrRoomNotOpen {
		t.Fatalf("room should be gone after logout: %v", err)
	}

	if _, err := svc.Create(ctx, sess, model.NewDoubt{Subject: "Physics", Title: " "}); !util.IsValidation(err) {
		t.Fatalf("blank title should fail: %v", err)
	}
}

func TestOpenRebuildsRoomAfterConnectionReplaced(t *testing.T) {
	api := newFakeDoubtAPI()
	ch := newFakeChannel()
	svc := NewDoubtService(api, nil, nil)
	svc.Channels = fakeChannels{ch: ch}
	sess := &model.Session{DeviceID: "dev", Token: "tok", UserID: "u1", Role: model.Student}
	ctx := context.Background()
	defer svc.CloseDevice("dev")

	if _, err := svc.Open(ctx, sess, "d1"); err != nil {
		t.Fatal(err)
	}
	ch.dropAll()
	waitFor(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.rooms[RoomKey("dev", "d1")].detached()
	})

	// 再次打开时重新订阅
	if _, err := svc.Open(ctx, sess, "d1"); err != nil {
		t.Fatal(err)
	}
	payload, _ := json.Marshal(model.Message{ID: "srv-9", DoubtID: "d1", Content: "teacher reply"})
	ch.push(realtime.Event{Type: EventDoubtMessage, Room: ChannelRoom("d1"), Data: payload})
	waitFor(t, func() bool {
		msgs, _ := svc.Messages(ctx, sess, "d1")
		return len(msgs) == 2 && msgs[1].ID == "srv-9"
	})
	if n := ch.joined[ChannelRoom("d1")]; n != 1 {
		t.Fatalf("join count after rebuild = %d", n)
	}
}
