// Package metrics provides Prometheus metrics for the playback queue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts link submissions by result (accepted, rejected, filtered).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tube_submissions_total",
		Help: "Total number of submitted links, by result.",
	}, []string{"result"})

	// PlaybackStartsTotal counts player processes started.
	PlaybackStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tube_playback_starts_total",
		Help: "Total number of player processes started.",
	})

	// PlaybackEndsTotal counts player process exits by cause (natural, forced).
	PlaybackEndsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tube_playback_ends_total",
		Help: "Total number of player process exits, by cause.",
	}, []string{"cause"})

	// LaunchFailuresTotal counts player processes that failed to start.
	LaunchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tube_launch_failures_total",
		Help: "Total number of player launch failures.",
	})

	// CommandsTotal counts chat commands by name and outcome.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tube_commands_total",
		Help: "Total number of chat commands handled, by command and outcome.",
	}, []string{"command", "outcome"})

	// InboundDroppedTotal counts chat messages dropped because the inbox was full.
	InboundDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tube_inbound_dropped_total",
		Help: "Total number of inbound chat messages dropped before handling.",
	})

	// QueueLength tracks the number of pending items.
	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tube_queue_length",
		Help: "Current number of pending queue items.",
	})

	// Playing is 1 while a player process is running.
	Playing = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tube_playing",
		Help: "1 while a video is playing, 0 otherwise.",
	})
)

// RecordSubmission increments the submission counter.
func RecordSubmission(result string) {
	SubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordPlaybackEnd increments the playback end counter.
func RecordPlaybackEnd(cause string) {
	PlaybackEndsTotal.WithLabelValues(cause).Inc()
}

// RecordCommand increments the command counter.
func RecordCommand(command, outcome string) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
}

// SetQueueState updates the queue gauges.
func SetQueueState(pending int, playing bool) {
	QueueLength.Set(float64(pending))
	if playing {
		Playing.Set(1)
	} else {
		Playing.Set(0)
	}
}
