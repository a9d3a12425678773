package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ajirodesu/chaldea/pkg/logger"
)

// Fleet is the set of logged-in instances for one deployment. Instance i of
// n owns the group chats hashing to slot i; adding a token rebalances which
// chats each instance answers, but never which commands exist.
type Fleet struct {
	instances []*Instance
}

// NewFleet logs in every token. A token that fails to log in aborts startup;
// running with a silently missing shard would leave part of the chat space
// unserved.
func NewFleet(tokens []string, deps Deps) (*Fleet, error) {
	if len(tokens) == 0 {
		return nil, errors.New("fleet: no bot tokens configured")
	}

	instances := make([]*Instance, 0, len(tokens))
	for i, token := range tokens {
		inst, err := NewInstance(token, i, len(tokens), deps)
		if err != nil {
			return nil, fmt.Errorf("fleet: %w", err)
		}
		instances = append(instances, inst)
	}
	return &Fleet{instances: instances}, nil
}

// Size returns the number of instances.
func (f *Fleet) Size() int { return len(f.instances) }

// Instances returns the fleet members in shard order.
func (f *Fleet) Instances() []*Instance { return f.instances }

// Run starts every instance and blocks until all have stopped. The first
// instance failure is returned; ctx cancellation stops the rest.
func (f *Fleet) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(f.instances))

	for _, inst := range f.instances {
		wg.Add(1)
		go func(inst *Instance) {
			defer wg.Done()
			if err := inst.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorCF("bot", "instance stopped", map[string]any{
					"index": inst.index,
					"error": err.Error(),
				})
				errCh <- err
				cancel()
			}
		}(inst)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

// NotifyDevelopers sends the notice from the first instance only; the whole
// fleet going online is one notice per developer, not one per token.
func (f *Fleet) NotifyDevelopers(ctx context.Context, text string) {
	f.instances[0].NotifyDevelopers(ctx, text)
}
