package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backgammon_sessions_started_total",
		Help: "Sessions moved from awaiting_start to in_progress.",
	})
	diceRolled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backgammon_dice_rolled_total",
		Help: "Ordinary turn rolls, by whether they were doubles.",
	}, []string{"doubles"})
	rollConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backgammon_roll_conflicts_total",
		Help: "Roll writes rejected because a concurrent roll landed first.",
	})
	settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backgammon_settlements_total",
		Help: "completeMatch calls, by result (settled, replay).",
	}, []string{"result"})
)
