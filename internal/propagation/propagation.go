// Package propagation evaluates which polynomial every unit of a wiring
// computes, and guards mutations against cycles.
package propagation

import (
	"log/slog"

	"github.com/adi-muresan/circuit-planner/internal/logging"
	"github.com/adi-muresan/circuit-planner/internal/model"
)

type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logging.OrDiscard(logger)}
}

// OutputMapping lists, per source id, the units fed by that source. A unit
// fed twice by the same source is listed twice.
func OutputMapping(w model.Wiring) [][]int {
	downstream := make([][]int, model.OutputCount)
	for slot, src := range w {
		if src == model.Unconnected || !model.IsSource(src) {
			continue
		}
		downstream[src] = append(downstream[src], model.UnitOfSlot(slot))
	}
	return downstream
}

// Outputs propagates the sentinel signal through w and returns one output
// per unit plus the sentinel at index model.SentinelID.
func (e *Evaluator) Outputs(w model.Wiring) []model.UnitOutput {
	outputs := make([]model.UnitOutput, model.OutputCount)
	if len(w) != model.SlotCount {
		e.logger.Warn("wiring has unexpected slot count", slog.Int("slots", len(w)))
		return outputs
	}
	downstream := OutputMapping(w)

	queued := make([]bool, model.OutputCount)
	// broken units are queued with an invalid output so that their
	// downstream units still resolve.
	broken := make([]bool, model.OutputCount)
	queued[model.SentinelID] = true
	queue := make([]int, 0, model.OutputCount)
	queue = append(queue, model.SentinelID)

	for head := 0; head < len(queue); head++ {
		id := queue[head]
		switch {
		case id == model.SentinelID:
			outputs[id] = model.ValidOutput(model.X())
		case broken[id]:
			outputs[id] = model.InvalidOutput()
		default:
			a, b := w.Sources(id)
			out, err := combine(model.TypeOf(id), outputs[a], outputs[b])
			if err != nil {
				e.logger.Warn("inconsistent unit during propagation",
					slog.Int("unit", id),
					slog.String("type", model.TypeOf(id).String()),
					slog.Any("error", err),
				)
				out = model.InvalidOutput()
			}
			outputs[id] = out
		}

		for _, next := range downstream[id] {
			if queued[next] {
				continue
			}
			a, b := w.Sources(next)
			if a == model.Unconnected || b == model.Unconnected {
				continue
			}
			if !model.IsSource(a) || !model.IsSource(b) {
				e.logger.Warn("unit has source out of range",
					slog.Int("unit", next),
					slog.Int("source_a", a),
					slog.Int("source_b", b),
				)
				markBroken(next, queued, broken, outputs)
				queue = append(queue, next)
				continue
			}
			if a != id && b != id {
				e.logger.Warn("wiring disagrees with output mapping",
					slog.Int("unit", next),
					slog.Int("source", id),
				)
				markBroken(next, queued, broken, outputs)
				queue = append(queue, next)
				continue
			}
			if !outputs[a].HasSignal || !outputs[b].HasSignal {
				continue
			}
			queued[next] = true
			queue = append(queue, next)
		}
	}
	return outputs
}

func markBroken(unit int, queued, broken []bool, outputs []model.UnitOutput) {
	queued[unit] = true
	broken[unit] = true
	outputs[unit] = model.InvalidOutput()
}

// ValidSources returns every id, sentinel included, whose output is valid.
func ValidSources(outputs []model.UnitOutput) []int {
	ids := make([]int, 0, len(outputs))
	for id, out := range outputs {
		if out.IsValid() {
			ids = append(ids, id)
		}
	}
	return ids
}
