package main

import (
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"time"

	"task_tracker/internal/domain"
	"task_tracker/internal/logger"

	"github.com/gorilla/websocket"
)

// Подключается к /ws и печатает события задач, пока не истечёт -for.
func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	token := flag.String("token", os.Getenv("TOKEN"), "JWT (or TOKEN env)")
	wait := flag.Duration("for", 30*time.Second, "how long to listen")
	flag.Parse()

	logger.Init("debug", "text")
	if *token == "" {
		logger.Fatal("token required")
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"token": {*token}}.Encode()}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Fatal("dial failed", "url", u.Redacted(), "status", status, "error", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(*wait)
	_ = conn.WriteJSON(map[string]string{"type": "ping"})

	for {
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Info("done", "reason", err)
			return
		}
		var ev domain.TaskEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.TaskID == 0 {
			logger.Info("message", "raw", string(raw))
			continue
		}
		logger.Info("event", "type", ev.Type, "task_id", ev.TaskID, "date", ev.Date)
	}
}
