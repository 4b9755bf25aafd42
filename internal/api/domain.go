package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// The domain surface is deliberately thin: request/response plumbing over
// the pipeline, no business rules. Validation lives on the server.

// OrgUnit is a perangkat daerah (OPD) or UPT record.
type OrgUnit struct {
	ID        int64   `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Radius    int     `json:"radius,omitempty"`
	ParentID  *int64  `json:"parent_id,omitempty"`
}

// WorkSchedule is a jam kerja configuration.
type WorkSchedule struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Days      []string `json:"days,omitempty"`
	OrgUnitID *int64   `json:"org_unit_id,omitempty"`
}

// Event is a kegiatan with its participant groups.
type Event struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
	Participants []Group   `json:"participants,omitempty"`
}

// Group is a participant group attached to an event.
type Group struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	UnitIDs []int64 `json:"unit_ids,omitempty"`
}

// AttendanceRecord is one presensi row in a report.
type AttendanceRecord struct {
	ID         int64      `json:"id"`
	EmployeeID int64      `json:"employee_id"`
	Employee   string     `json:"employee"`
	Date       string     `json:"date"`
	CheckIn    *time.Time `json:"check_in,omitempty"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	Status     string     `json:"status"`
}

// ReportParams filters an attendance report.
type ReportParams struct {
	OrgUnitID int64
	From      string
	To        string
	Page      int
	PerPage   int
}

func (p ReportParams) query() url.Values {
	q := url.Values{}
	if p.OrgUnitID != 0 {
		q.Set("org_unit_id", strconv.FormatInt(p.OrgUnitID, 10))
	}
	if p.From != "" {
		q.Set("from", p.From)
	}
	if p.To != "" {
		q.Set("to", p.To)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// ListOrgUnits returns all organizational units. Served through the
// caching client; unit lists change rarely.
func (c *Client) ListOrgUnits(ctx context.Context) ([]OrgUnit, error) {
	var resp listResponse[OrgUnit]
	if err := c.getCached(ctx, "/org-units", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateOrgUnit creates a unit.
func (c *Client) CreateOrgUnit(ctx context.Context, unit OrgUnit) (*OrgUnit, error) {
	var created OrgUnit
	if err := c.doJSON(ctx, http.MethodPost, "/org-units", unit, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOrgUnit updates a unit.
func (c *Client) UpdateOrgUnit(ctx context.Context, id int64, unit OrgUnit) (*OrgUnit, error) {
	var updated OrgUnit
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/org-units/%d", id), unit, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteOrgUnit deletes a unit.
func (c *Client) DeleteOrgUnit(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/org-units/%d", id), nil, nil)
}

// ListSchedules returns the work-hour schedules.
func (c *Client) ListSchedules(ctx context.Context) ([]WorkSchedule, error) {
	var resp listResponse[WorkSchedule]
	if err := c.getCached(ctx, "/work-schedules", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateSchedule creates a schedule.
func (c *Client) CreateSchedule(ctx context.Context, schedule WorkSchedule) (*WorkSchedule, error) {
	var created WorkSchedule
	if err := c.doJSON(ctx, http.MethodPost, "/work-schedules", schedule, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSchedule updates a schedule.
func (c *Client) UpdateSchedule(ctx context.Context, id int64, schedule WorkSchedule) (*WorkSchedule, error) {
	var updated WorkSchedule
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/work-schedules/%d", id), schedule, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSchedule deletes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/work-schedules/%d", id), nil, nil)
}

// ListEvents returns events with their participant groups.
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var resp listResponse[Event]
	if err := c.doJSON(ctx, http.MethodGet, "/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, event Event) (*Event, error) {
	var created Event
	if err := c.doJSON(ctx, http.MethodPost, "/events", event, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent updates an event.
func (c *Client) UpdateEvent(ctx context.Context, id int64, event Event) (*Event, error) {
	var updated Event
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/events/%d", id), event, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil)
}

// AttendanceReport lists attendance records matching the filter.
func (c *Client) AttendanceReport(ctx context.Context, params ReportParams) ([]AttendanceRecord, error) {
	path := "/attendance/report"
	if q := params.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse[AttendanceRecord]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ExportAttendance streams the Excel export of a report to w.
func (c *Client) ExportAttendance(ctx context.Context, params ReportParams, w io.Writer) error {
	return c.download(ctx, "/attendance/export", params.query(), w)
}

// UploadAvatar replaces the current user's avatar.
func (c *Client) UploadAvatar(ctx context.Context, filename string, file io.Reader) error {
	return c.doMultipart(ctx, "/auth/profile/avatar", "avatar", filename, file, nil, nil)
}

// ImportEmployees uploads an Excel sheet of employees for an org unit.
func (c *Client) ImportEmployees(ctx context.Context, orgUnitID int64, filename string, file io.Reader) error {
	fields := map[string]string{"org_unit_id": strconv.FormatInt(orgUnitID, 10)}
	return c.doMultipart(ctx, "/employees/import", "file", filename, file, fields, nil)
}
