package dashboard

// Recorder receives operational counters from the core. The metrics package
// provides the Prometheus implementation.
type Recorder interface {
	RemoteCall(service, outcome string)
	PageLoaded()
	SummarySettled(outcome string)
	StaleResult()
}

// Remote service names passed to Recorder.RemoteCall.
const (
	ServiceAccounts  = "accounts"
	ServiceEvents    = "events"
	ServiceDetails   = "details"
	ServiceSummarize = "summarize"
)

// Outcomes passed to Recorder.RemoteCall and Recorder.SummarySettled.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

type nopRecorder struct{}

func (nopRecorder) RemoteCall(string, string) {}
func (nopRecorder) PageLoaded() {}
func (nopRecorder) SummarySettled(string) {}
func (nopRecorder) StaleResult() {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
