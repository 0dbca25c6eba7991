package health

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// All is the wildcard value for every filter field.
const All = "All"

// DefaultCrossAccountRole is the role the query service assumes in each member account.
const DefaultCrossAccountRole = "DataCollectionCrossAccountRole"

// Event is one row of a health event query result. Events are immutable once
// returned; the list for a query is a snapshot.
type Event struct {
	EventArn          string `json:"EventArn"`
	AccountID         string `json:"AccountId"`
	Service           string `json:"Service"`
	Region            string `json:"Region"`
	EventTypeCode     string `json:"EventTypeCode"`
	EventTypeCategory string `json:"EventTypeCategory"`
	EventScopeCode    string `json:"EventScopeCode,omitempty"`
	AvailabilityZone  string `json:"AvailabilityZone,omitempty"`
	StartTime         string `json:"StartTime,omitempty"`
	EndTime           string `json:"EndTime,omitempty"`
	LastUpdatedTime   string `json:"LastUpdatedTime,omitempty"`
	StatusCode        string `json:"StatusCode"`
}

// EventDetail is the detail record for one event. Fields keeps every attribute
// returned by the service, including the two the core reads directly.
type EventDetail struct {
	EventArn          string
	LatestDescription string
	AffectedEntities  []string
	Fields            map[string]any
}

// UnmarshalJSON accepts the open-ended detail object of the detail service.
func (d *EventDetail) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Fields = raw
	d.EventArn, _ = raw["event_arn"].(string)
	d.LatestDescription, _ = raw["latest_description"].(string)
	d.AffectedEntities = nil
	if list, ok := raw["affected_entities"].([]any); ok {
		for _, v := range list {
			switch e := v.(type) {
			case string:
				d.AffectedEntities = append(d.AffectedEntities, e)
			case map[string]any:
				// entity objects carry their identifier under entityValue
				if s, ok := e["entityValue"].(string); ok {
					d.AffectedEntities = append(d.AffectedEntities, s)
				}
			}
		}
	}
	return nil
}

// MarshalJSON writes the detail back in the service shape.
func (d EventDetail) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	out["event_arn"] = d.EventArn
	out["latest_description"] = d.LatestDescription
	entities := d.AffectedEntities
	if entities == nil {
		entities = []string{}
	}
	out["affected_entities"] = entities
	return json.Marshal(out)
}

// FieldNames returns the detail field names in display order.
func (d EventDetail) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FormatValue renders a detail value for display: nested values as compact
// JSON, scalars verbatim.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// DetailFailure records why a detail record could not be produced for an ARN.
type DetailFailure struct {
	EventArn string `json:"event_arn"`
	Reason   string `json:"reason"`
}

// DetailBatch is the response of one batched detail request.
type DetailBatch struct {
	Details  []EventDetail
	Failures []DetailFailure
}

// Filter holds the seven dashboard filter selections. Each field is either
// All or a concrete value.
type Filter struct {
	ManagementAccount string `json:"managementAccount" yaml:"managementAccount"`
	EventArn          string `json:"eventArn" yaml:"eventArn"`
	EventType         string `json:"eventType" yaml:"eventType"`
	EventCategory     string `json:"eventCategory" yaml:"eventCategory"`
	EventStatus       string `json:"eventStatus" yaml:"eventStatus"`
	Service           string `json:"service" yaml:"service"`
	Region            string `json:"region" yaml:"region"`
}

// DefaultFilter returns a filter with every field set to All.
func DefaultFilter() Filter {
	return Filter{
		ManagementAccount: All,
		EventArn:          All,
		EventType:         All,
		EventCategory:     All,
		EventStatus:       All,
		Service:           All,
		Region:            All,
	}
}

// IsAll reports whether v selects everything. Empty counts as All.
func IsAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == All
}

// EventFilter is the normalized attribute filter forwarded to the query
// service. Keys are conjunctive; values within a key are alternatives.
type EventFilter map[string][]string

// Attribute keys of EventFilter.
const (
	KeyEventArn          = "EventArn"
	KeyEventTypeCode     = "EventTypeCode"
	KeyEventTypeCategory = "EventTypeCategory"
	KeyEventStatus       = "EventStatus"
	KeyService           = "Service"
	KeyRegion            = "Region"
)

// AccountQuery is the per-account part of an event query.
type AccountQuery struct {
	CrossAccountRole string      `json:"cross_account_role"`
	EventFilter      EventFilter `json:"event_filter"`
}

// SummaryStatus tags a summarization reply.
type SummaryStatus int

const (
	SummaryOK SummaryStatus = iota
	SummaryRejected
)

// SummaryReply is what a Summarizer returns when the call itself completed.
// Result holds the tagged text on SummaryOK; Message explains a rejection.
type SummaryReply struct {
	Status  SummaryStatus
	Result  string
	Message string
}
