package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newEchoRelayServer starts a local websocket server that replies OK to any
// EVENT frame and EOSE to any REQ frame, enough to drive Relay's framing
// logic end-to-end without a real relay.
func newEchoRelayServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var raw []json.RawMessage
			if json.Unmarshal(data, &raw) != nil || len(raw) == 0 {
				continue
			}
			var label string
			_ = json.Unmarshal(raw[0], &label)
			switch label {
			case "EVENT":
				var ev Event
				_ = json.Unmarshal(raw[1], &ev)
				resp, _ := json.Marshal([]interface{}{"OK", ev.ID, true, ""})
				_ = conn.WriteMessage(websocket.TextMessage, resp)
			case "REQ":
				var subID string
				_ = json.Unmarshal(raw[1], &subID)
				resp, _ := json.Marshal([]interface{}{"EOSE", subID})
				_ = conn.WriteMessage(websocket.TextMessage, resp)
			}
		}
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func TestRelayConnectPublishReceivesOk(t *testing.T) {
	srv, wsURL := newEchoRelayServer(t)
	defer srv.Close()

	if _, err := url.Parse(wsURL); err != nil {
		t.Fatalf("bad test url: %v", err)
	}

	relay := NewRelay(wsURL)
	okCh := make(chan bool, 1)
	relay.OnOk(func(eventID string, accepted bool, message string) {
		okCh <- accepted
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := relay.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer relay.Close()

	id, _ := NewNostrIdentity()
	ev, err := BuildEvent(id, KindTextNote, nil, "hi", 1700000000)
	if err != nil {
		t.Fatalf("BuildEvent: %v", err)
	}
	if err := relay.PublishEvent(ev); err != nil {
		t.Fatalf("PublishEvent: %v", err)
	}

	select {
	case accepted := <-okCh:
		if !accepted {
			t.Fatal("expected accepted=true")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for OK frame")
	}
}

func TestSubscriptionRegistryReissueOnReconnect(t *testing.T) {
	srv, wsURL := newEchoRelayServer(t)
	defer srv.Close()

	relay := NewRelay(wsURL)
	eoseCh := make(chan string, 4)
	relay.OnEose(func(subID string) { eoseCh <- subID })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := relay.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer relay.Close()

	reg := NewSubscriptionRegistry()
	if err := reg.Register(relay, "sub-1", Filter{Kinds: []int{KindTextNote}}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	select {
	case subID := <-eoseCh:
		if subID != "sub-1" {
			t.Fatalf("unexpected subID: %q", subID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for EOSE")
	}

	if err := reg.ReissueAll(relay); err != nil {
		t.Fatalf("ReissueAll: %v", err)
	}
	select {
	case <-eoseCh:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reissue EOSE")
	}

	active := reg.Active(relay.URL())
	if len(active) != 1 || active[0] != "sub-1" {
		t.Fatalf("unexpected active subs: %v", active)
	}
}
