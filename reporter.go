package emitter

import (
	"github.com/rs/zerolog"
)

// Reporter receives the outcome of each step of a run. Calls for one run
// are never concurrent, but Sent and WriteFailed arrive asynchronously
// relative to the submitting loop.
type Reporter interface {
	Opened(r *Report)
	OpenFailed(r *Report, err error)
	Sent(r *Report, res Result)
	WriteFailed(r *Report, res Result)
	TransportError(r *Report, err error)
	Finished(r *Report)
}

// LogReporter writes every event to a zerolog logger.
type LogReporter struct {
	Logger zerolog.Logger
}

func (l LogReporter) log(r *Report) *zerolog.Logger {
	lg := l.Logger.With().Str("run_id", r.RunID).Str("port", r.Port).Logger()
	return &lg
}

func (l LogReporter) Opened(r *Report) {
	l.log(r).Info().Str("driver", r.Driver).Msg("port opened")
}

func (l LogReporter) OpenFailed(r *Report, err error) {
	l.log(r).Error().Err(err).Msg("error opening port")
}

func (l LogReporter) Sent(r *Report, res Result) {
	l.log(r).Info().
		Int("index", res.Index).
		Int("bytes", res.Bytes).
		Dur("latency", res.Latency).
		Str("line", res.Line).
		Msg("sent")
}

func (l LogReporter) WriteFailed(r *Report, res Result) {
	l.log(r).Error().Err(res.Err).Int("index", res.Index).Str("line", res.Line).Msg("error on write")
}

func (l LogReporter) TransportError(r *Report, err error) {
	l.log(r).Warn().Err(err).Msg("transport error")
}

func (l LogReporter) Finished(r *Report) {
	level := zerolog.InfoLevel
	if r.HasFailures() {
		level = zerolog.WarnLevel
	}
	l.log(r).WithLevel(level).
		Int("sent", r.Sent).
		Int("failed", r.Failed).
		Int("transport_errors", r.TransportErrors).
		Dur("elapsed", r.Finished.Sub(r.Started)).
		Msg("run finished")
}
