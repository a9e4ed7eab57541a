package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Interview rooms currently held by the coordinator",
	})

	connectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "clients_connected",
		Help:      "Joined websocket clients by role",
	}, []string{"role"})

	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_ingested_total",
		Help:      "Proctoring events appended to the event store",
	}, []string{"event_type", "severity"})

	finalizeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "finalize_total",
		Help:      "Finalize attempts by end reason and whether this attempt transitioned the record",
	}, []string{"reason", "transitioned"})

	framesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_relayed_total",
		Help:      "Candidate video frames delivered to interviewers",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_dropped_total",
		Help:      "Unsent video frames replaced by a newer frame",
	})

	sendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_send_failures_total",
		Help:      "Per-client send failures skipped during broadcast",
	}, []string{"signal"})

	recordingsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recordings_finished_total",
		Help:      "Recordings stopped, by final recording status",
	}, []string{"status"})
)

func RoomOpened()                     { activeRooms.Inc() }
func RoomClosed()                     { activeRooms.Dec() }
func ClientJoined(role string)        { connectedClients.WithLabelValues(role).Inc() }
func ClientLeft(role string)          { connectedClients.WithLabelValues(role).Dec() }
func EventIngested(typ, sev string)   { eventsIngested.WithLabelValues(typ, sev).Inc() }
func FrameRelayed()                   { framesRelayed.Inc() }
func FrameDropped()                   { framesDropped.Inc() }
func SendFailed(signal string)        { sendFailures.WithLabelValues(signal).Inc() }
func RecordingFinished(status string) { recordingsFinished.WithLabelValues(status).Inc() }

func Finalized(reason string, transitioned bool) {
	finalizeOutcomes.WithLabelValues(reason, strconv.FormatBool(transitioned)).Inc()
}
