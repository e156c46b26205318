package rest

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pinpointhq/pinpoint-backend/internal/domain"
)

// Filter query parameters. The parser never fails: malformed tokens are
// dropped one by one so that a stale shared URL still returns a result set.

// ParseIssueFilters converts raw query parameters into a typed filter
// state. The viewer supplies the two out-of-band inputs: the current user
// (for the watching flag) and the admin bit (kept for the query builder).
func ParseIssueFilters(q url.Values, viewer domain.Viewer) domain.IssueFilters {
	f := domain.DefaultIssueFilters()

	f.Search = strings.TrimSpace(q.Get("q"))

	if _, present := q["status"]; present {
		statuses := parseStatusSet(q["status"])
		if len(statuses) == 0 {
			// present but empty after filtering: explicit "all"
			f.Status = domain.AllStatusFilter()
		} else {
			f.Status = domain.SpecificStatuses(statuses...)
		}
	}

	f.Machines = splitSet(q["machine"])

	for _, tok := range splitSet(q["severity"]) {
		if s := domain.IssueSeverity(strings.ToUpper(tok)); s.IsValid() {
			f.Severities = append(f.Severities, s)
		}
	}
	for _, tok := range splitSet(q["priority"]) {
		if p := domain.IssuePriority(strings.ToUpper(tok)); p.IsValid() {
			f.Priorities = append(f.Priorities, p)
		}
	}
	for _, tok := range splitSet(q["frequency"]) {
		if fr := domain.IssueFrequency(strings.ToUpper(tok)); fr.IsValid() {
			f.Frequencies = append(f.Frequencies, fr)
		}
	}

	for _, tok := range splitSet(q["assignee"]) {
		if strings.EqualFold(tok, domain.UnassignedSentinel) {
			f.Unassigned = true
			continue
		}
		if id, err := uuid.Parse(tok); err == nil {
			f.AssigneeIDs = append(f.AssigneeIDs, id)
		}
	}
	f.OwnerIDs = parseIDSet(q["owner"])
	f.ReporterIDs = parseIDSet(q["reporter"])

	// watching is a no-op for anonymous viewers
	if flagSet(q, "watching") && viewer.UserID != nil {
		f.Watching = true
	}

	f.CreatedFrom = parseDate(q.Get("created_from"))
	f.CreatedTo = parseDate(q.Get("created_to"))
	f.UpdatedFrom = parseDate(q.Get("updated_from"))
	f.UpdatedTo = parseDate(q.Get("updated_to"))

	f.IncludeInactiveMachines = flagSet(q, "include_inactive_machines")

	if sort := domain.IssueSort(q.Get("sort")); sort.IsValid() {
		f.Sort = sort
	}

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		f.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil && domain.ValidPageSize(size) {
		f.PageSize = size
	}

	return f
}

// EncodeIssueFilters serializes a filter state back to query parameters.
// Defaults are omitted so encoded URLs stay minimal; ParseIssueFilters on
// the result yields an equivalent filter state.
func EncodeIssueFilters(f domain.IssueFilters) url.Values {
	q := url.Values{}

	if f.Search != "" {
		q.Set("q", f.Search)
	}

	switch f.Status.Mode {
	case domain.StatusModeAll:
		q.Set("status", "")
	case domain.StatusModeSpecific:
		q.Set("status", joinLower(statusTokens(f.Status.Statuses)))
	}

	if len(f.Machines) > 0 {
		q.Set("machine", strings.Join(f.Machines, ","))
	}
	if len(f.Severities) > 0 {
		q.Set("severity", joinLower(severityTokens(f.Severities)))
	}
	if len(f.Priorities) > 0 {
		q.Set("priority", joinLower(priorityTokens(f.Priorities)))
	}
	if len(f.Frequencies) > 0 {
		q.Set("frequency", joinLower(frequencyTokens(f.Frequencies)))
	}

	var assignees []string
	if f.Unassigned {
		assignees = append(assignees, domain.UnassignedSentinel)
	}
	for _, id := range f.AssigneeIDs {
		assignees = append(assignees, id.String())
	}
	if len(assignees) > 0 {
		q.Set("assignee", strings.Join(assignees, ","))
	}
	if ids := joinIDs(f.OwnerIDs); ids != "" {
		q.Set("owner", ids)
	}
	if ids := joinIDs(f.ReporterIDs); ids != "" {
		q.Set("reporter", ids)
	}

	if f.Watching {
		q.Set("watching", "true")
	}

	if f.CreatedFrom != nil {
		q.Set("created_from", f.CreatedFrom.UTC().Format(time.DateOnly))
	}
	if f.CreatedTo != nil {
		q.Set("created_to", f.CreatedTo.UTC().Format(time.DateOnly))
	}
	if f.UpdatedFrom != nil {
		q.Set("updated_from", f.UpdatedFrom.UTC().Format(time.DateOnly))
	}
	if f.UpdatedTo != nil {
		q.Set("updated_to", f.UpdatedTo.UTC().Format(time.DateOnly))
	}

	if f.IncludeInactiveMachines {
		q.Set("include_inactive_machines", "true")
	}
	if f.Sort != domain.DefaultIssueSort {
		q.Set("sort", f.Sort.String())
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize != domain.DefaultPageSize {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}

	return q
}

// splitSet flattens repeated and comma-separated values into a de-duplicated
// slice preserving first-seen order.
func splitSet(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

func parseStatusSet(values []string) []domain.IssueStatus {
	var out []domain.IssueStatus
	for _, tok := range splitSet(values) {
		if s := domain.IssueStatus(strings.ToUpper(tok)); s.IsValid() {
			out = append(out, s)
		}
	}
	return out
}

func parseIDSet(values []string) []uuid.UUID {
	var out []uuid.UUID
	for _, tok := range splitSet(values) {
		if id, err := uuid.Parse(tok); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// parseDate accepts an ISO calendar date, or a full RFC 3339 timestamp for
// tolerance. Anything else is dropped.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		u := t.UTC()
		return &u
	}
	return nil
}

// flagSet treats presence as true unless the value is an explicit negative.
func flagSet(q url.Values, key string) bool {
	vals, present := q[key]
	if !present {
		return false
	}
	for _, v := range vals {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "false", "0", "no":
			return false
		}
	}
	return true
}

func joinLower(tokens []string) string {
	return strings.ToLower(strings.Join(tokens, ","))
}

func joinIDs(ids []uuid.UUID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return strings.Join(out, ",")
}

func statusTokens(in []domain.IssueStatus) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func severityTokens(in []domain.IssueSeverity) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func priorityTokens(in []domain.IssuePriority) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func frequencyTokens(in []domain.IssueFrequency) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
