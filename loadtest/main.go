package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

const (
	ViewCount = 50 // Every view drives the same session, so keep it modest.
	MsgCount  = 20 // Intents per view
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type stateResponse struct {
	Version  uint64 `json:"version"`
	Messages []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	} `json:"messages"`
	UnreadCount int `json:"unread_count"`
}

var snapshots atomic.Int64

func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	flag.Parse()
	wsURL := "ws" + (*base)[len("http"):] + "/ws"

	before, err := fetchState(*base)
	if err != nil {
		log.Fatalf("❌ Server not reachable: %v", err)
	}

	log.Printf("🔥 STARTING STRESS TEST: %d views, %d intents each...", ViewCount, MsgCount)
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < ViewCount; i++ {
		wg.Add(1)
		go func(viewID int) {
			defer wg.Done()
			runView(wsURL, viewID)
		}(i)
	}
	wg.Wait()

	// One call over plain HTTP to cover the REST path too.
	if resp, err := postJSON(*base+"/api/calls/voice", nil); err != nil {
		log.Printf("❌ Call Failed: %v", err)
	} else {
		resp.Body.Close()
	}

	after, err := fetchState(*base)
	if err != nil {
		log.Fatalf("❌ Final state: %v", err)
	}
	log.Printf("✅ LOAD TEST COMPLETE in %s: %s new messages, %s snapshots received, version %d -> %d",
		time.Since(start).Round(time.Millisecond),
		humanize.Comma(int64(len(after.Messages)-len(before.Messages))),
		humanize.Comma(snapshots.Load()),
		before.Version, after.Version,
	)
}

func runView(wsURL string, viewID int) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [view %d]: %v", viewID, err)
		return
	}
	defer conn.Close()

	// The first frame is the current state; react to its first message.
	var first frame
	if err := conn.ReadJSON(&first); err != nil {
		log.Printf("❌ No initial snapshot [view %d]: %v", viewID, err)
		return
	}
	var state stateResponse
	json.Unmarshal(first.Payload, &state)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			if f.Type == "snapshot" {
				snapshots.Add(1)
			}
		}
	}()

	for i := 0; i < MsgCount; i++ {
		var intent map[string]any
		switch {
		case i%5 == 4 && len(state.Messages) > 0:
			intent = map[string]any{
				"type":    "toggle_reaction",
				"payload": map[string]string{"message_id": state.Messages[0].ID, "emoji": "🔥"},
			}
		case i%7 == 6:
			intent = map[string]any{
				"type":    "select_channel",
				"payload": map[string]string{"channel_id": fmt.Sprint(1 + i%4)},
			}
		default:
			intent = map[string]any{
				"type":    "send_message",
				"payload": map[string]string{"content": fmt.Sprintf("LoadTest Msg %d from view %d", i, viewID)},
			}
		}
		if err := conn.WriteJSON(intent); err != nil {
			log.Printf("❌ Send Fail [view %d]: %v", viewID, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func fetchState(base string) (stateResponse, error) {
	var s stateResponse
	resp, err := http.Get(base + "/api/state")
	if err != nil {
		return s, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return s, fmt.Errorf("unexpected status %s", resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&s)
	return s, err
}

func postJSON(url string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(url, "application/json", bytes.NewBuffer(jsonData))
}
