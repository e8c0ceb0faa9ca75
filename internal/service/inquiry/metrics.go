package inquiry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dealer-support-chat/internal/model"
)

var (
	inquiriesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_inquiries_created_total",
			Help: "Inquiries opened, by origin.",
		},
		[]string{"origin"},
	)
	messagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_chat_messages_appended_total",
			Help: "Messages written to the ledger, by sender.",
		},
		[]string{"sender"},
	)
	handoffs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "support_chat_human_handoffs_total",
			Help: "Customer messages the automated responder could not resolve.",
		},
	)
)

func countInquiry(origin string) {
	inquiriesCreated.WithLabelValues(origin).Inc()
}

func countMessage(sender model.Sender) {
	messagesAppended.WithLabelValues(string(sender)).Inc()
}

func countHandoff() {
	handoffs.Inc()
}
