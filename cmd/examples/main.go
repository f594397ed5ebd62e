package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veiloq/socket-wrapper/pkg/logging"
	"github.com/veiloq/socket-wrapper/pkg/ratelimit"
	"github.com/veiloq/socket-wrapper/pkg/socket"
)

func main() {
	logger := logging.NewLogger()
	logger.SetLevel(logging.DEBUG)

	host := os.Getenv("SOCKET_HOST")
	if host == "" {
		host = "echo.websocket.org"
	}
	port := os.Getenv("SOCKET_PORT")

	logger.Info("connecting", logging.String("host", host))
	ws, err := socket.NewClient(host, port,
		socket.WithLogger(logger),
		socket.WithHeartbeat(20*time.Second),
		socket.WithReconnectAttempts(3),
		socket.WithSendRate(ratelimit.Rate{Limit: 10, Interval: time.Second}),
	)
	if err != nil {
		logger.Error("failed to connect", logging.Error(err))
		os.Exit(1)
	}

	ws.OnConnect(func() {
		logger.Info("connected")
	})
	ws.OnDisconnect(func() {
		logger.Warn("disconnected, reconnect pending")
	})
	ws.OnError(func(err error) {
		logger.Error("socket error", logging.Error(err))
	})
	ws.OnMessage(func(payload []byte) {
		logger.Info("received", logging.String("payload", string(payload)))
	})

	if err := ws.Send([]byte("hello")); err != nil {
		logger.Warn("send failed", logging.Error(err))
	}

	// Report connection metrics until interrupted.
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			m := ws.Metrics()
			logger.Info("metrics",
				logging.Bool("connected", ws.IsConnected()),
				logging.Int("sends", int(m.Sends)),
				logging.Int("reconnects", int(m.Reconnects)),
				logging.Int("reconnect_failures", int(m.ReconnectFailures)),
			)
		case <-sigCh:
			logger.Info("shutting down")
			return
		}
	}
}
