package emitter

import (
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one message.
type Result struct {
	Index   int           `json:"index"`
	Line    string        `json:"line"`
	Bytes   int           `json:"bytes"`
	Err     error         `json:"-"`
	Latency time.Duration `json:"latency"`
}

func (r Result) OK() bool { return r.Err == nil }

// Report summarises one run. It is complete once Run returns.
type Report struct {
	RunID  string `json:"run_id"`
	Port   string `json:"port"`
	Driver string `json:"driver"`

	Started    time.Time `json:"started"`
	Opened     time.Time `json:"opened,omitzero"`
	FirstWrite time.Time `json:"first_write,omitzero"`
	Finished   time.Time `json:"finished"`

	Results         []Result `json:"results"`
	Sent            int      `json:"sent"`
	Failed          int      `json:"failed"`
	TransportErrors int      `json:"transport_errors"`

	// Err is the error that ended the run early, if any.
	Err     error           `json:"-"`
	Metrics MetricsSnapshot `json:"metrics"`
}

func newReport(cfg *Config, port string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Port:    port,
		Driver:  cfg.Driver,
		Started: time.Now(),
		Results: make([]Result, 0, cfg.MessageCount),
	}
}

func (r *Report) record(res Result) {
	r.Results = append(r.Results, res)
	if res.OK() {
		r.Sent++
	} else {
		r.Failed++
	}
}

// Indexes returns the counter values of all attempted messages in order.
func (r *Report) Indexes() []int {
	out := make([]int, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Index
	}
	return out
}

// HasFailures reports whether the run saw any open, write or transport error.
func (r *Report) HasFailures() bool {
	return r.Err != nil || r.Failed > 0 || r.TransportErrors > 0
}
