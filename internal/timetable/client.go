// Package timetable implements the schedule caching and refresh core:
// the NEIS API client, the week orchestrator, the day-switch scheduler,
// and subject alias resolution.
package timetable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
	"github.com/nice-timetable/backend/internal/timetable/week"
)

// DefaultBaseURL is the NEIS open API root.
const DefaultBaseURL = "https://open.neis.go.kr/hub"

// schoolTypeHigh selects the high-school timetable resource; every other
// school level uses the middle/elementary resource.
const schoolTypeHigh = "고등학교"

// Client talks to the NEIS open API. It performs one GET per call site;
// retry is the caller's concern (pull-to-refresh or the next scheduled
// revalidation), so there is no backoff loop here.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client with the platform default timeout.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates an API client against a specific API root.
// Tests point this at an httptest server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// get issues one GET against the named endpoint and returns the raw body.
// Any non-2xx status is a *StatusError carrying the code.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("KEY", c.apiKey)
	params.Set("Type", "json")

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	return body, nil
}

// timetableRow is one raw row of the timetable endpoints.
type timetableRow struct {
	Date        string  `json:"ALL_TI_YMD"`
	ClassName   string  `json:"CLASS_NM"`
	Period      string  `json:"PERIO"`
	Subject     string  `json:"ITRT_CNTNT"`
	Room        *string `json:"CLRM_NM"`
	LastUpdated *string `json:"LOAD_DTM"`
}

type timetableContainer struct {
	Row []timetableRow `json:"row"`
}

// timetableEnvelope wraps result rows in one of two container keys
// depending on school level. Absence of both is an empty result set,
// not a decode failure.
type timetableEnvelope struct {
	His []timetableContainer `json:"hisTimetable"`
	Mis []timetableContainer `json:"misTimetable"`
}

func (e timetableEnvelope) rows() []timetableRow {
	containers := e.His
	if len(containers) == 0 {
		containers = e.Mis
	}
	var rows []timetableRow
	for _, c := range containers {
		rows = append(rows, c.Row...)
	}
	return rows
}

// FetchTimetable retrieves the timetable rows for one class over
// [startDate, endDate] and returns canonical days: deduplicated, period
// padded, weekday padded Monday through Friday, sorted ascending.
// Returns ErrNoSchedule when the range has no rows at all.
func (c *Client) FetchTimetable(ctx context.Context, identity models.SchoolIdentity, startDate, endDate time.Time) ([]models.ScheduleDay, error) {
	endpoint := "misTimetable"
	if identity.SchoolType == schoolTypeHigh {
		endpoint = "hisTimetable"
	}

	params := url.Values{}
	params.Set("ATPT_OFCDC_SC_CODE", identity.OfficeCode)
	params.Set("SD_SCHUL_CODE", identity.SchoolCode)
	params.Set("AY", startDate.Format("2006"))
	params.Set("GRADE", identity.Grade)
	params.Set("CLASS_NM", identity.ClassName)
	params.Set("TI_FROM_YMD", startDate.Format(week.StampFormat))
	params.Set("TI_TO_YMD", endDate.Format(week.StampFormat))

	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var envelope timetableEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Endpoint: endpoint, Err: err}
	}

	days := toScheduleDays(envelope.rows())
	if len(days) == 0 {
		// "No data for this period" is reported before weekday padding so
		// callers can cache it as a negative result.
		return nil, ErrNoSchedule
	}

	return PadDays(days, startDate, endDate), nil
}

type schoolRow struct {
	OfficeCode string  `json:"ATPT_OFCDC_SC_CODE"`
	OfficeName string  `json:"ATPT_OFCDC_SC_NM"`
	SchoolCode string  `json:"SD_SCHUL_CODE"`
	SchoolName string  `json:"SCHUL_NM"`
	SchoolType string  `json:"SCHUL_KND_SC_NM"`
	Address    *string `json:"ORG_RDNMA"`
}

type schoolContainer struct {
	Row []schoolRow `json:"row"`
}

type schoolSearchEnvelope struct {
	SchoolInfo []schoolContainer `json:"schoolInfo"`
}

// SearchSchools looks up schools by name and level for onboarding.
func (c *Client) SearchSchools(ctx context.Context, name, schoolType string) ([]models.School, error) {
	params := url.Values{}
	params.Set("SCHUL_NM", name)
	params.Set("SCHUL_KND_SC_NM", schoolType)

	body, err := c.get(ctx, "schoolInfo", params)
	if err != nil {
		return nil, err
	}

	var envelope schoolSearchEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Endpoint: "schoolInfo", Err: err}
	}

	var schools []models.School
	for _, container := range envelope.SchoolInfo {
		for _, row := range container.Row {
			school := models.School{
				OfficeCode: row.OfficeCode,
				OfficeName: row.OfficeName,
				SchoolCode: row.SchoolCode,
				SchoolName: row.SchoolName,
				SchoolType: row.SchoolType,
			}
			if row.Address != nil {
				school.Address = *row.Address
			}
			schools = append(schools, school)
		}
	}

	return schools, nil
}

type classRow struct {
	Grade     string `json:"GRADE"`
	ClassName string `json:"CLASS_NM"`
}

type classContainer struct {
	Row []classRow `json:"row"`
}

type classListEnvelope struct {
	ClassInfo []classContainer `json:"classInfo"`
}

// FetchClasses lists the grade/class pairs of one school for the current
// academic year.
func (c *Client) FetchClasses(ctx context.Context, officeCode, schoolCode string) ([]models.SchoolClass, error) {
	params := url.Values{}
	params.Set("ATPT_OFCDC_SC_CODE", officeCode)
	params.Set("SD_SCHUL_CODE", schoolCode)
	params.Set("AY", time.Now().Format("2006"))

	body, err := c.get(ctx, "classInfo", params)
	if err != nil {
		return nil, err
	}

	var envelope classListEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodeError{Endpoint: "classInfo", Err: err}
	}

	var classes []models.SchoolClass
	for _, container := range envelope.ClassInfo {
		for _, row := range container.Row {
			classes = append(classes, models.SchoolClass{
				Grade:     row.Grade,
				ClassName: row.ClassName,
			})
		}
	}

	return classes, nil
}
