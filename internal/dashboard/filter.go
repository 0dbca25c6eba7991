// Package dashboard holds the data-orchestration core of the health events
// console: filter translation, the event list snapshot, page-wise detail
// loading and on-demand summarization.
package dashboard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Ashfaaq98/health-console/internal/health"
)

// Filter field names accepted by FilterModel.Set.
const (
	FieldManagementAccount = "managementAccount"
	FieldEventArn          = "eventArn"
	FieldEventType         = "eventType"
	FieldEventCategory     = "eventCategory"
	FieldEventStatus       = "eventStatus"
	FieldService           = "service"
	FieldRegion            = "region"
)

// FilterFields lists the filter fields in display order.
var FilterFields = []string{
	FieldManagementAccount,
	FieldEventArn,
	FieldEventType,
	FieldEventCategory,
	FieldEventStatus,
	FieldService,
	FieldRegion,
}

// FilterModel holds the current filter selections.
type FilterModel struct {
	mu sync.RWMutex
	f  health.Filter
}

// NewFilterModel returns a model with every field set to All.
func NewFilterModel() *FilterModel {
	return &FilterModel{f: health.DefaultFilter()}
}

// Current returns a copy of the selections.
func (m *FilterModel) Current() health.Filter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.f
}

// Replace swaps all selections at once. Empty fields become All.
func (m *FilterModel) Replace(f health.Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.f = normalizeFilter(f)
}

// Reset sets every field back to All.
func (m *FilterModel) Reset() {
	m.Replace(health.DefaultFilter())
}

// Set updates one field by name.
func (m *FilterModel) Set(name, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		value = health.All
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case FieldManagementAccount:
		m.f.ManagementAccount = value
	case FieldEventArn:
		m.f.EventArn = value
	case FieldEventType:
		m.f.EventType = value
	case FieldEventCategory:
		m.f.EventCategory = value
	case FieldEventStatus:
		m.f.EventStatus = value
	case FieldService:
		m.f.Service = value
	case FieldRegion:
		m.f.Region = value
	default:
		return fmt.Errorf("unknown filter field: %s", name)
	}
	return nil
}

// Get returns one field by name.
func (m *FilterModel) Get(name string) (string, error) {
	f := m.Current()
	switch name {
	case FieldManagementAccount:
		return f.ManagementAccount, nil
	case FieldEventArn:
		return f.EventArn, nil
	case FieldEventType:
		return f.EventType, nil
	case FieldEventCategory:
		return f.EventCategory, nil
	case FieldEventStatus:
		return f.EventStatus, nil
	case FieldService:
		return f.Service, nil
	case FieldRegion:
		return f.Region, nil
	default:
		return "", fmt.Errorf("unknown filter field: %s", name)
	}
}

func normalizeFilter(f health.Filter) health.Filter {
	fix := func(v string) string {
		if health.IsAll(v) {
			return health.All
		}
		return strings.TrimSpace(v)
	}
	return health.Filter{
		ManagementAccount: fix(f.ManagementAccount),
		EventArn:          fix(f.EventArn),
		EventType:         fix(f.EventType),
		EventCategory:     fix(f.EventCategory),
		EventStatus:       fix(f.EventStatus),
		Service:           fix(f.Service),
		Region:            fix(f.Region),
	}
}

// Query is the normalized input of an event list refresh.
type Query struct {
	Accounts []string
	Filter   health.EventFilter // nil when no attribute is filtered
}

// ComputeQuery translates filter selections into a query. With
// ManagementAccount set to All the query spans every allowed account.
func ComputeQuery(f health.Filter, allowedAccounts []string) (Query, error) {
	var accounts []string
	if health.IsAll(f.ManagementAccount) {
		accounts = append(accounts, allowedAccounts...)
	} else {
		accounts = []string{strings.TrimSpace(f.ManagementAccount)}
	}
	if len(accounts) == 0 {
		return Query{}, health.ErrNoAccountsSelected
	}

	filter := health.EventFilter{}
	add := func(key, value string) {
		if !health.IsAll(value) {
			filter[key] = []string{strings.TrimSpace(value)}
		}
	}
	add(health.KeyEventArn, f.EventArn)
	add(health.KeyEventTypeCode, f.EventType)
	add(health.KeyEventTypeCategory, f.EventCategory)
	add(health.KeyEventStatus, f.EventStatus)
	add(health.KeyService, f.Service)
	add(health.KeyRegion, f.Region)
	if len(filter) == 0 {
		filter = nil
	}
	return Query{Accounts: accounts, Filter: filter}, nil
}
