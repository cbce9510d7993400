package agent

import (
	"context"

	"github.com/mindfultube/mindfultube/internal/core"
)

// InterfaceUpdate is pushed to the page layer
type InterfaceUpdate struct {
	Message         string                `json:"message,omitempty"`
	Recommendations []NextRecommendation  `json:"recommendations,omitempty"`
	InterfaceConfig *core.InterfaceConfig `json:"interfaceConfig,omitempty"`
	Show            bool                  `json:"show"`
}

// InterfaceNotifier delivers interface updates to connected clients
type InterfaceNotifier interface {
	UpdateAgentInterface(ctx context.Context, update InterfaceUpdate) error
}

// NotifierFunc adapts a function to InterfaceNotifier
type NotifierFunc func(ctx context.Context, update InterfaceUpdate) error

// UpdateAgentInterface calls f
func (f NotifierFunc) UpdateAgentInterface(ctx context.Context, update InterfaceUpdate) error {
	return f(ctx, update)
}
