// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

// TopologyEvent is one entry in the engine's running log of plate-topology
// changes — split, merge, terrane extraction, terrane reattachment — each
// stamped with the simulated time it occurred and its outcome, for the CSV
// topology-event log (spec §4.14 supplement: the four named tables plus an
// event log of every topology-changing action).
type TopologyEvent struct {
	TimeMy  float64
	Kind    string // "split", "merge", "extract", "reattach"
	Subject int    // the plate or terrane ID the event is about
	Detail  string
	Outcome string // "ok" or a short failure reason
}

func (e *Engine) recordEvent(kind string, subject int, detail, outcome string) {
	e.events = append(e.events, TopologyEvent{
		TimeMy:  e.currentTimeMy,
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
		Outcome: outcome,
	})
}
