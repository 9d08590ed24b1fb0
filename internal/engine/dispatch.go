package engine

import "iter"

// Handlers is the callback view of an event stream. Nil handlers are skipped.
type Handlers struct {
	OnData    func(EventData)
	OnMetrics func(Metrics)
	OnError   func(error)
	OnEnd     func()
}

// DispatchStats counts what went through Dispatch.
type DispatchStats struct {
	Data    int
	Metrics int
	Errors  int
	Ended   bool
}

// Dispatch drains seq into h, synchronously and in order. It stops after End.
// Error events never stop the drain: whatever was pushed before stays delivered.
func Dispatch(seq iter.Seq[Event], h Handlers) DispatchStats {
	var st DispatchStats
	for ev := range seq {
		switch ev.Kind {
		case KindData:
			if ev.Data == nil {
				continue
			}
			st.Data++
			if h.OnData != nil {
				h.OnData(*ev.Data)
			}
		case KindMetrics:
			if ev.Metrics == nil {
				continue
			}
			st.Metrics++
			if h.OnMetrics != nil {
				h.OnMetrics(*ev.Metrics)
			}
		case KindError:
			st.Errors++
			if h.OnError != nil {
				h.OnError(ev.Err)
			}
		case KindEnd:
			st.Ended = true
			if h.OnEnd != nil {
				h.OnEnd()
			}
			return st
		}
	}
	return st
}
