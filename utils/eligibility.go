package utils

import (
	"strconv"
	"strings"
	"time"

	"hoogi/models"
)

// ReminderPolicy controls behavior the template author cannot express.
type ReminderPolicy struct {
	// UnknownFrequencyOpen restores the legacy behavior where an
	// unrecognized reminder_frequency skips frequency gating entirely.
	// Default (false) treats unknown values like custom-days.
	UnknownFrequencyOpen bool
}

const everyFewDaysInterval = 3 // fixed, regardless of reminder_days

// IsReminderDue decides whether a lead should receive a reminder for
// the given template right now. lastSent is the latest successful send
// for this (lead, template) pairing, nil if none.
//
// Gates are evaluated in order; the first failing gate excludes the
// lead: include flag, status match, day gate, hour gate.
func IsReminderDue(lead *models.Lead, lastSent *time.Time, tmpl *models.AutomationTemplate, now time.Time, policy ReminderPolicy) bool {
	if !tmpl.IncludeReminder {
		return false
	}

	if tmpl.ReminderStatus != "" && tmpl.ReminderStatus != lead.Status {
		return false
	}
	if tmpl.ReminderSubStatus != "" && tmpl.ReminderSubStatus != lead.SubStatus {
		return false
	}

	days := tmpl.ReminderDays
	if days <= 0 {
		days = 1
	}

	if lastSent == nil {
		if wholeDaysBetween(lead.CreatedAt, now) < days {
			return false
		}
	} else {
		elapsed := wholeDaysBetween(*lastSent, now)

		switch tmpl.ReminderFrequency {
		case models.FrequencyCustomDays, "":
			if elapsed < days {
				return false
			}
		case models.FrequencyEveryFewDays:
			if elapsed < everyFewDaysInterval {
				return false
			}
		default:
			if !policy.UnknownFrequencyOpen && elapsed < days {
				return false
			}
		}
	}

	if hour, ok := parseReminderHour(tmpl.ReminderTime); ok && now.Hour() != hour {
		return false
	}

	return true
}

// wholeDaysBetween floors the delta to whole days, matching the
// millisecond floor-division the legacy dispatcher used.
func wholeDaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from) / (24 * time.Hour))
}

// parseReminderHour extracts the hour component of an "HH:MM" value.
// The minute is ignored: the reminder tick is hourly. Malformed values
// behave as if no time was set.
func parseReminderHour(value string) (int, bool) {
	if value == "" {
		return 0, false
	}

	parts := strings.SplitN(value, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
