package transport

// commandQueueDepth bounds how many commands can be pending before a
// producer (internal/httpctl) blocks on Enqueue.
const commandQueueDepth = 64

// Command is one control-plane operation applied to the Engine between
// periods, matching §5's "control commands are polled between periods from
// a non-blocking input source." Apply runs on the loop goroutine, never
// concurrently with RunPeriod, so it may call any Engine method freely.
// Done, if non-nil, receives Apply's result exactly once.
type Command struct {
	Apply func(*Engine) error
	Done  chan error
}

// Enqueue submits cmd for application at the next DrainCommands call. It
// blocks if the queue is full.
func (e *Engine) Enqueue(cmd Command) {
	e.cmdCh <- cmd
}

// DrainCommands applies every command currently queued, without blocking
// for more. It is meant to be called once per loop iteration by whatever
// goroutine also calls RunPeriod, whether or not the transport is
// currently PLAYing.
func (e *Engine) DrainCommands() {
	for {
		select {
		case cmd := <-e.cmdCh:
			err := cmd.Apply(e)
			if cmd.Done != nil {
				cmd.Done <- err
			}
		default:
			return
		}
	}
}
