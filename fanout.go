package asynclog

// RegisterSink adds s to the loggers that receive a copy of every record
// this logger writes. Registering a sink twice is a no-op.
func (c *core) RegisterSink(s Sink) error {
	if s == nil {
		return ErrNilSink
	}
	if s == c.self {
		return ErrSelfRegistration
	}

	c.sinksMu.Lock()
	defer c.sinksMu.Unlock()
	for _, existing := range c.sinks {
		if existing == s {
			return nil
		}
	}
	c.sinks = append(c.sinks, s)
	return nil
}

// RemoveSink unregisters s, reporting whether it was registered
func (c *core) RemoveSink(s Sink) bool {
	c.sinksMu.Lock()
	defer c.sinksMu.Unlock()
	for i, existing := range c.sinks {
		if existing == s {
			c.sinks = append(c.sinks[:i:i], c.sinks[i+1:]...)
			return true
		}
	}
	return false
}

// ClearSinks unregisters every sink
func (c *core) ClearSinks() {
	c.sinksMu.Lock()
	c.sinks = nil
	c.sinksMu.Unlock()
}

// Sinks returns a copy of the registered sinks
func (c *core) Sinks() []Sink {
	c.sinksMu.RLock()
	defer c.sinksMu.RUnlock()
	return append([]Sink(nil), c.sinks...)
}

// fanout forwards rec to every registered sink. The registry is copied
// under the read lock so submissions never run while holding it. A record
// that has already crossed maxFanoutHops sinks is discarded, which bounds
// any registration cycle.
func (c *core) fanout(rec Record) {
	sinks := c.Sinks()
	if len(sinks) == 0 {
		return
	}

	rec.hops++
	if rec.hops > maxFanoutHops {
		c.stats.recordError()
		c.diag.internalLog("logger '%s': record exceeded %d sink hops, dropped", c.name, maxFanoutHops)
		return
	}

	for _, s := range sinks {
		if err := s.Submit(rec); err != nil {
			c.stats.recordError()
			c.diag.internalLog("logger '%s': sink '%s' rejected record: %v", c.name, s.Name(), err)
		}
	}
}
