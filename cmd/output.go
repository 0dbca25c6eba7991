package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ashfaaq98/health-console/internal/dashboard"
	"github.com/Ashfaaq98/health-console/internal/health"
)

// Output formats of the headless commands.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", outputText, "Output format (text, json, yaml)")
}

// render writes v as JSON or YAML, or calls text for the text format.
func render(w io.Writer, format string, v interface{}, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", outputText:
		return text(w)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// filterFlags are the seven dashboard filters as command flags.
type filterFlags struct {
	f health.Filter
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	ff.f = health.DefaultFilter()
	fl := cmd.Flags()
	fl.StringVar(&ff.f.ManagementAccount, "account", health.All, "Management account to query (All spans every allowed account)")
	fl.StringVar(&ff.f.EventArn, "arn", health.All, "Event ARN")
	fl.StringVar(&ff.f.EventType, "type", health.All, "Event type code")
	fl.StringVar(&ff.f.EventCategory, "category", health.All, "Event type category")
	fl.StringVar(&ff.f.EventStatus, "status", health.All, "Event status code")
	fl.StringVar(&ff.f.Service, "service", health.All, "Service")
	fl.StringVar(&ff.f.Region, "region", health.All, "Region")
}

func (ff *filterFlags) apply(s *dashboard.Session) {
	s.Filters().Replace(ff.f)
}

// eventView is the serialized form of one event row.
type eventView struct {
	EventArn          string         `json:"event_arn" yaml:"event_arn"`
	AccountID         string         `json:"account_id" yaml:"account_id"`
	Service           string         `json:"service" yaml:"service"`
	Region            string         `json:"region" yaml:"region"`
	EventTypeCode     string         `json:"event_type_code" yaml:"event_type_code"`
	EventTypeCategory string         `json:"event_type_category" yaml:"event_type_category"`
	StatusCode        string         `json:"status_code" yaml:"status_code"`
	StartTime         string         `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	LastUpdatedTime   string         `json:"last_updated_time,omitempty" yaml:"last_updated_time,omitempty"`
	Detail            map[string]any `json:"detail,omitempty" yaml:"detail,omitempty"`
	Failure           string         `json:"failure,omitempty" yaml:"failure,omitempty"`
}

func newEventView(ev health.Event, snap *dashboard.Snapshot, withDetail bool) eventView {
	v := eventView{
		EventArn:          ev.EventArn,
		AccountID:         ev.AccountID,
		Service:           ev.Service,
		Region:            ev.Region,
		EventTypeCode:     ev.EventTypeCode,
		EventTypeCategory: ev.EventTypeCategory,
		StatusCode:        ev.StatusCode,
		StartTime:         ev.StartTime,
		LastUpdatedTime:   ev.LastUpdatedTime,
	}
	if reason, failed := snap.Failure(ev.EventArn); failed {
		v.Failure = reason
	} else if d, ok := snap.Detail(ev.EventArn); ok && withDetail {
		v.Detail = d.Fields
	}
	return v
}

// pageView is one page of the event list.
type pageView struct {
	Page        int         `json:"page" yaml:"page"`
	TotalPages  int         `json:"total_pages" yaml:"total_pages"`
	TotalEvents int         `json:"total_events" yaml:"total_events"`
	Events      []eventView `json:"events" yaml:"events"`
}

func detailState(snap *dashboard.Snapshot, arn string) string {
	if reason, failed := snap.Failure(arn); failed {
		return "failed: " + reason
	}
	if _, ok := snap.Detail(arn); ok {
		return "loaded"
	}
	return "pending"
}
