package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_chat_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_chat_ws_rooms",
			Help: "Current number of rooms with at least one subscriber.",
		},
	)
	wsMessagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_ws_messages_delivered_total",
			Help: "Total events handed to subscriber buffers.",
		},
	)
	wsEvicted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_ws_evicted_total",
			Help: "Subscribers dropped because their buffer was full.",
		},
	)
	relayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_ws_relayed_total",
			Help: "Events received from Redis and delivered to the local hub.",
		},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsRooms, wsMessagesDelivered, wsEvicted, relayed)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(count int) {
	wsMessagesDelivered.Add(float64(count))
}

func addEvicted() {
	wsEvicted.Inc()
}

func addRelayed() {
	relayed.Inc()
}
