package cmd

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iocost-sim/iocost-sim/sim"
	"github.com/iocost-sim/iocost-sim/sim/trace"
)

var serveAddr string // listen address

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage asks the server to replay a workload.
type clientMessage struct {
	Type     string `json:"type"`            // "run"
	Store    string `json:"store,omitempty"` // overrides the workload's store
	Workload string `json:"workload"`        // workload YAML document
}

// serverMessage is streamed back: one "sample" per call, then a "summary".
type serverMessage struct {
	Type    string              `json:"type"`
	Sample  *sim.Sample         `json:"sample,omitempty"`
	Summary *trace.TraceSummary `json:"summary,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// server replays workloads sent over websocket connections. Each session
// gets its own simulator; only the calibration is shared, read-only.
type server struct {
	cal *sim.Calibration

	reg      *prometheus.Registry
	mu       sync.Mutex // serializes metrics updates from concurrent sessions
	metrics  *promMetrics
	sessions prometheus.Counter
}

func newServer(cal *sim.Calibration) *server {
	reg := prometheus.NewRegistry()
	return &server{
		cal:     cal,
		reg:     reg,
		metrics: newPromMetrics(reg),
		sessions: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "iocost_sessions_total",
			Help: "Completed workload replays",
		}),
	}
}

func (srv *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.handleWebSocket)
	mux.Handle("/metrics", promhttp.HandlerFor(srv.reg, promhttp.HandlerOpts{}))
	return mux
}

func (srv *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("Error upgrading connection: %v", err)
		return
	}
	defer conn.Close()
	logrus.Infof("Client connected from %s", r.RemoteAddr)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Warnf("Error reading message: %v", err)
			}
			break
		}
		if msg.Type != "run" {
			if err := conn.WriteJSON(serverMessage{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)}); err != nil {
				break
			}
			continue
		}
		if err := srv.runSession(conn, msg); err != nil {
			logrus.Warnf("Session aborted: %v", err)
			break
		}
	}
	logrus.Info("Client disconnected")
}

// runSession replays one workload and streams its samples. A returned error
// means the connection is unusable; workload errors are reported to the client.
func (srv *server) runSession(conn *websocket.Conn, msg clientMessage) error {
	w, err := sim.ParseWorkload([]byte(msg.Workload))
	if err == nil {
		if msg.Store != "" {
			w.Store = sim.StoreKind(msg.Store)
		}
		err = w.Validate()
	}
	if err != nil {
		return conn.WriteJSON(serverMessage{Type: "error", Error: err.Error()})
	}

	s := sim.NewSimulator(srv.cal, sim.NewDirtyStore(w.Store))
	s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelCalls})
	var writeErr error
	sim.ReplayFunc(s, w, func(sample sim.Sample) {
		if writeErr == nil {
			writeErr = conn.WriteJSON(serverMessage{Type: "sample", Sample: &sample})
		}
	})
	if writeErr != nil {
		return writeErr
	}

	srv.mu.Lock()
	srv.metrics.update(s)
	srv.mu.Unlock()
	srv.sessions.Inc()
	logrus.Debugf("Replayed %d calls, clock=%.6f dirty=%d", len(s.Trace.Calls), s.Clock(), s.Dirty())

	return conn.WriteJSON(serverMessage{Type: "summary", Summary: trace.Summarize(s.Trace)})
}

// serveCmd exposes the simulator over websocket
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve workload replays over websocket and metrics over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		cal, err := loadCalibration(calibrationPath, hostName, dataDir)
		if err != nil {
			logrus.Fatalf("Failed to load calibration: %v", err)
		}
		srv := newServer(cal)
		logrus.Infof("Server starting on http://localhost%s", serveAddr)
		logrus.Infof("WebSocket endpoint: ws://localhost%s/ws", serveAddr)
		logrus.Fatal(http.ListenAndServe(serveAddr, srv.routes()))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
