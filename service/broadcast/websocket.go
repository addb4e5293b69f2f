package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/gaze-go/model"
	"github.com/khaledhikmat/gaze-go/service/config"
	"github.com/khaledhikmat/gaze-go/service/lgr"
)

const (
	writeWait   = 10 * time.Second
	readLimit   = 512
	publishSize = 64
)

// Viewers must answer a ping within readWait. Pings go out at 9/10 of it.
var readWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type outbound struct {
	conn    *websocket.Conn
	message []byte
}

type wsService struct {
	clients     map[*websocket.Conn]bool
	broadcast   chan []byte
	direct      chan outbound
	register    chan *websocket.Conn
	unregister  chan *websocket.Conn
	mutex       sync.RWMutex
	onThreshold ThresholdFunc
	server      *http.Server
	canxFn      context.CancelFunc
	done        chan struct{}
}

// NewWebsocket serves /ws on the configured broadcast address. Viewers
// receive every published event as a JSON text message and may send
// {"threshold": n} to change the live threshold.
func NewWebsocket(canxCtx context.Context, cfgsvc config.IService, onThreshold ThresholdFunc) (IService, error) {
	address := cfgsvc.GetBroadcastAddress()
	if address == "" {
		return nil, xerrors.New("broadcast address is not configured")
	}

	svc := newHub(canxCtx, onThreshold)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", svc.serveWS)
	svc.server = &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		lgr.Logger.Info(
			"broadcast server listening",
			slog.String("address", address),
		)
		err := svc.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			lgr.Logger.Error(
				"broadcast server failed",
				slog.Any("error", xerrors.Errorf("listen on %s: %w", address, err)),
			)
		}
	}()

	return svc, nil
}

func newHub(canxCtx context.Context, onThreshold ThresholdFunc) *wsService {
	ctx, canxFn := context.WithCancel(canxCtx)
	svc := &wsService{
		clients:     make(map[*websocket.Conn]bool),
		broadcast:   make(chan []byte, publishSize),
		direct:      make(chan outbound, publishSize),
		register:    make(chan *websocket.Conn),
		unregister:  make(chan *websocket.Conn),
		onThreshold: onThreshold,
		canxFn:      canxFn,
		done:        make(chan struct{}),
	}

	go svc.run(ctx)
	return svc
}

// run owns every write to the connections.
func (svc *wsService) run(ctx context.Context) {
	defer close(svc.done)

	ticker := time.NewTicker(readWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			svc.mutex.Lock()
			for client := range svc.clients {
				client.Close()
				delete(svc.clients, client)
			}
			svc.mutex.Unlock()
			return

		case client := <-svc.register:
			svc.mutex.Lock()
			svc.clients[client] = true
			count := len(svc.clients)
			svc.mutex.Unlock()
			lgr.Logger.Debug("viewer connected", slog.Int("clients", count))

		case client := <-svc.unregister:
			svc.mutex.Lock()
			if _, ok := svc.clients[client]; ok {
				delete(svc.clients, client)
				client.Close()
			}
			count := len(svc.clients)
			svc.mutex.Unlock()
			lgr.Logger.Debug("viewer disconnected", slog.Int("clients", count))

		case out := <-svc.direct:
			svc.mutex.Lock()
			if _, ok := svc.clients[out.conn]; ok {
				svc.write(out.conn, websocket.TextMessage, out.message)
			}
			svc.mutex.Unlock()

		case message := <-svc.broadcast:
			svc.mutex.Lock()
			for client := range svc.clients {
				svc.write(client, websocket.TextMessage, message)
			}
			svc.mutex.Unlock()

		case <-ticker.C:
			svc.mutex.Lock()
			for client := range svc.clients {
				svc.write(client, websocket.PingMessage, nil)
			}
			svc.mutex.Unlock()
		}
	}
}

// write drops the client on failure. The caller holds the lock.
func (svc *wsService) write(client *websocket.Conn, messageType int, message []byte) {
	client.SetWriteDeadline(time.Now().Add(writeWait))
	err := client.WriteMessage(messageType, message)
	if err != nil {
		lgr.Logger.Debug("error sending to viewer", slog.Any("error", err))
		delete(svc.clients, client)
		client.Close()
	}
}

func (svc *wsService) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		lgr.Logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return nil
	})

	select {
	case svc.register <- conn:
	case <-svc.done:
		conn.Close()
		return
	}

	defer func() {
		select {
		case svc.unregister <- conn:
		case <-svc.done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		reply, ok := svc.handleControl(msg)
		if !ok {
			continue
		}

		select {
		case svc.direct <- outbound{conn: conn, message: reply}:
		case <-svc.done:
			return
		}
	}
}

func (svc *wsService) handleControl(msg []byte) ([]byte, bool) {
	var c control
	if err := json.Unmarshal(msg, &c); err != nil || c.Threshold == nil || svc.onThreshold == nil {
		lgr.Logger.Debug("ignoring viewer message", slog.String("message", string(msg)))
		return nil, false
	}

	applied := svc.onThreshold(*c.Threshold)
	lgr.Logger.Info("threshold changed by viewer", slog.Int("threshold", applied))

	reply, err := json.Marshal(ack{Threshold: applied})
	if err != nil {
		return nil, false
	}
	return reply, true
}

// Publish never blocks the pipeline: events are dropped while the hub is
// backed up.
func (svc *wsService) Publish(event model.DirectionEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return xerrors.Errorf("marshal direction event: %w", err)
	}

	select {
	case <-svc.done:
		return xerrors.New("broadcast hub is closed")
	default:
	}

	select {
	case svc.broadcast <- message:
	default:
		lgr.Logger.Debug("broadcast queue full, dropping event", slog.Int("frame", event.Frame))
	}
	return nil
}

func (svc *wsService) Clients() int {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()
	return len(svc.clients)
}

func (svc *wsService) Close() error {
	svc.canxFn()
	<-svc.done

	if svc.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	return svc.server.Shutdown(ctx)
}
