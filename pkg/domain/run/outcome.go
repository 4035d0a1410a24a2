package run

import (
	"time"

	"github.com/felixgeelhaar/weaver/pkg/domain/history"
)

// Outcome is the durable record of one finished run.
type Outcome struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
	Connected  bool             `json:"connected" yaml:"connected"`
	Succeeded  int              `json:"succeeded" yaml:"succeeded"`
	Failed     int              `json:"failed" yaml:"failed"`
	Stats      history.RunStats `json:"stats" yaml:"stats"`
	Entries    []Entry          `json:"entries" yaml:"entries"`
}

// Attempted returns the number of events the executor reached.
func (o *Outcome) Attempted() int {
	return o.Succeeded + o.Failed
}
