// Package mock provides an Invoker that records calls instead of sending
// them.
package mock

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/dataapi/dataapi.go/pkg/connection"
	"github.com/dataapi/dataapi.go/pkg/ejson"
)

// Call is one recorded invocation.
type Call struct {
	Action    string
	Namespace connection.Namespace
	Params    bson.D
}

// Invoker records calls and answers each with Respond. The answer is
// encoded as canonical Extended JSON and decoded into the caller's result,
// so result types go through the same codec as on the wire.
type Invoker struct {
	mu    sync.Mutex
	calls []Call

	// Respond returns the response document for a call. When nil, calls
	// succeed with an empty document.
	Respond func(call Call) (any, error)
}

var _ connection.Invoker = (*Invoker)(nil)

func Create() *Invoker {
	return &Invoker{}
}

func (m *Invoker) Invoke(_ context.Context, action string, ns connection.Namespace, params bson.D, res any) error {
	call := Call{Action: action, Namespace: ns, Params: params}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	respond := m.Respond
	m.mu.Unlock()

	var out any = bson.D{}
	if respond != nil {
		var err error
		if out, err = respond(call); err != nil {
			return err
		}
	}
	if res == nil {
		return nil
	}

	codec := ejson.New()
	data, err := codec.Marshal(out)
	if err != nil {
		return err
	}
	if err := codec.Unmarshal(data, res); err != nil {
		return &connection.DecodeError{Action: action, Err: err}
	}
	return nil
}

// Calls returns the recorded calls in order.
func (m *Invoker) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Last returns the most recent call, or the zero Call.
func (m *Invoker) Last() Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Call{}
	}
	return m.calls[len(m.calls)-1]
}
