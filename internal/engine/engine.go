package engine

import (
	"campus-collab/internal/database"
	"campus-collab/internal/engine/actors"
	"campus-collab/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine coordinates communication between actors
type Engine struct {
	messagingActor *actor.PID
	userActor      *actor.PID
}

func NewEngine(system *actor.ActorSystem, db database.Store, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	// Spawn messaging actor
	messagingProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewMessagingActor(db, metrics)
	})
	messagingPID := context.Spawn(messagingProps)

	// Spawn user actor
	userProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(db, metrics)
	})
	userPID := context.Spawn(userProps)

	return &Engine{
		messagingActor: messagingPID,
		userActor:      userPID,
	}
}

// GetMessagingActor returns the PID of the messaging actor
func (e *Engine) GetMessagingActor() *actor.PID {
	return e.messagingActor
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}
