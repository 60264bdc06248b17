package compose

import (
	"fmt"

	"metro-status-backend/internal/reconcile"
	"metro-status-backend/internal/store"
)

// MessageLimit is the hard cap on a composed notification.
const MessageLimit = 140

// urlWidth is the fixed rendered width of an appended reference URL
// (22 for the shortened link, plus the separating space).
const urlWidth = 23

// URLMaker returns the reference URL for a unit, or "" for none.
type URLMaker func(unitID string) string

// Compose renders a changed-unit record into a bounded human-readable
// message. The template is picked by the (old, new) category pair; the
// recurrence and downtime clauses and the trailing URL are appended only
// while they fit, and on overflow the addition is dropped, never the base
// message.
func Compose(rec reconcile.ChangeRecord, urlFor URLMaker) string {
	oldCategory := rec.OldStatus.Category
	newCategory := rec.NewStatus.Category

	station := rec.Unit.StationName
	shortID := rec.UnitID
	if len(shortID) > 6 {
		shortID = shortID[:6]
	}

	var msg string
	switch {
	case oldCategory == store.CategoryOperational:
		// Went out of service.
		pfx := "Off"
		if newCategory == store.CategoryBroken {
			pfx = "Broken"
		}
		msg = fmt.Sprintf("%s! #%s #%s. Status is %s.", pfx, station, shortID, rec.NewStatus.Symptom)

		if newCategory == store.CategoryBroken && rec.LastFix != nil {
			sinceFix := rec.NewStatus.ObservedAt.Sub(rec.OldStatus.ObservedAt)
			msg = extend(msg, lastBrokeClause(sinceFix.Seconds()))
		}

	case newCategory == store.CategoryOperational:
		// Back in service.
		pfx := "On"
		if oldCategory == store.CategoryBroken {
			pfx = "Fixed"
		}
		msg = fmt.Sprintf("%s! #%s #%s. Status was %s.", pfx, station, shortID, rec.OldStatus.Symptom)

		if rec.LastOperational != nil && rec.LastOperational.EndTime != nil {
			down := rec.NewStatus.ObservedAt.Sub(*rec.LastOperational.EndTime)
			if down > 0 {
				msg = extend(msg, "Downtime "+compactDuration(down.Seconds()))
			}
		}

	default:
		// Lateral transition between non-operational symptoms.
		msg = fmt.Sprintf("Updated: #%s #%s was %s, now %s.",
			station, shortID, rec.OldStatus.Symptom, rec.NewStatus.Symptom)
	}

	if urlFor != nil {
		if url := urlFor(rec.UnitID); url != "" {
			msg = extendURL(msg, url)
		}
	}

	return msg
}

// extend appends a clause only if the result stays within the cap.
func extend(msg, clause string) string {
	if clause == "" {
		return msg
	}
	extended := msg + " " + clause
	if len(extended) > MessageLimit {
		return msg
	}
	return extended
}

// extendURL appends the reference URL, charging its fixed rendered width
// rather than the raw string length.
func extendURL(msg, url string) string {
	if len(msg)+urlWidth > MessageLimit {
		return msg
	}
	return msg + " " + url
}

// compactDuration formats seconds as "HHhMMm", or "MMm" under an hour.
func compactDuration(secs float64) string {
	hrs := int(secs / 3600)
	mins := int(secs-float64(hrs)*3600) / 60
	if hrs > 0 {
		return fmt.Sprintf("%02dh%02dm", hrs, mins)
	}
	return fmt.Sprintf("%02dm", mins)
}

// lastBrokeClause renders the recurrence clause for a fresh break.
func lastBrokeClause(secs float64) string {
	if secs <= 0 {
		return ""
	}
	days := int(secs / (3600 * 24))
	switch {
	case days == 0:
		return "Last broke earlier today."
	case days == 1:
		return "Last broke yesterday."
	default:
		return fmt.Sprintf("Last broke %d days ago.", days)
	}
}
