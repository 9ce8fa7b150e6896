package alerts

import (
	"fmt"
	"time"

	telemetry "telematics-cloud/internal/telemetry/domain"
)

// Rule is one independent threshold check. Rules never see each other's
// results; a single event can fire any number of them.
type Rule interface {
	// Evaluate returns an alert when the rule fires, nil otherwise. A rule
	// whose reading is absent from the event never fires.
	Evaluate(event *telemetry.Event, now time.Time) *Alert
}

// DefaultRules is the ordered rule set evaluated against every event. Adding
// a rule means appending here; existing rules are never edited.
func DefaultRules() []Rule {
	return []Rule{
		SpeedingRule{Limit: 120},
		OverheatingRule{Limit: 100},
	}
}

// Evaluate runs every rule in order and collects the alerts that fired.
func Evaluate(rules []Rule, event *telemetry.Event, now time.Time) []Alert {
	if event == nil {
		return nil
	}
	var fired []Alert
	for _, rule := range rules {
		if alert := rule.Evaluate(event, now); alert != nil {
			fired = append(fired, *alert)
		}
	}
	return fired
}

// SpeedingRule fires when speed exceeds the limit in km/h.
type SpeedingRule struct {
	Limit float64
}

// Evaluate implements Rule.
func (r SpeedingRule) Evaluate(event *telemetry.Event, now time.Time) *Alert {
	if event.Speed == nil || *event.Speed <= r.Limit {
		return nil
	}
	return &Alert{
		EventID:     event.ID,
		VehicleID:   event.VehicleID,
		Kind:        KindSpeeding,
		Severity:    SeverityWarning,
		Description: fmt.Sprintf("Vehicle exceeded speed limit: %.1f km/h", *event.Speed),
		CreatedAt:   now,
	}
}

// OverheatingRule fires when coolant temperature exceeds the limit in °C.
type OverheatingRule struct {
	Limit float64
}

// Evaluate implements Rule.
func (r OverheatingRule) Evaluate(event *telemetry.Event, now time.Time) *Alert {
	if event.CoolantTemp == nil || *event.CoolantTemp <= r.Limit {
		return nil
	}
	return &Alert{
		EventID:     event.ID,
		VehicleID:   event.VehicleID,
		Kind:        KindEngineOverheating,
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("Engine coolant temperature high: %.1f°C", *event.CoolantTemp),
		CreatedAt:   now,
	}
}
