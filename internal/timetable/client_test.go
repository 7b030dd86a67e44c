package timetable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nice-timetable/backend/internal/storage/models"
)

var testIdentity = models.SchoolIdentity{
	SchoolType: "고등학교",
	OfficeCode: "B10",
	SchoolCode: "7010084",
	Grade:      "2",
	ClassName:  "3",
}

func testWeek() (time.Time, time.Time) {
	return time.Date(2025, time.September, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, time.September, 5, 0, 0, 0, 0, time.Local)
}

func TestFetchTimetableSelectsEndpointBySchoolType(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"hisTimetable":[{"row":[{"ALL_TI_YMD":"20250901","PERIO":"1","ITRT_CNTNT":"수학"}]}]}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()

	if _, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday); err != nil {
		t.Fatalf("FetchTimetable: %v", err)
	}
	if gotPath != "/hisTimetable" {
		t.Errorf("high school hit %q, want /hisTimetable", gotPath)
	}

	middle := testIdentity
	middle.SchoolType = "중학교"
	if _, err := client.FetchTimetable(context.Background(), middle, monday, friday); err != nil {
		t.Fatalf("FetchTimetable: %v", err)
	}
	if gotPath != "/misTimetable" {
		t.Errorf("middle school hit %q, want /misTimetable", gotPath)
	}
}

func TestFetchTimetableSendsRequiredParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		for key, want := range map[string]string{
			"KEY":                "test-key",
			"Type":               "json",
			"ATPT_OFCDC_SC_CODE": "B10",
			"SD_SCHUL_CODE":      "7010084",
			"AY":                 "2025",
			"GRADE":              "2",
			"CLASS_NM":           "3",
			"TI_FROM_YMD":        "20250901",
			"TI_TO_YMD":          "20250905",
		} {
			if got := q.Get(key); got != want {
				t.Errorf("param %s = %q, want %q", key, got, want)
			}
		}
		w.Write([]byte(`{"hisTimetable":[{"row":[{"ALL_TI_YMD":"20250901","PERIO":"1","ITRT_CNTNT":"수학"}]}]}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()
	if _, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday); err != nil {
		t.Fatalf("FetchTimetable: %v", err)
	}
}

func TestFetchTimetableFallsBackToMisContainer(t *testing.T) {
	// Some responses carry the middle-school container key even on the
	// high-school endpoint; the decoder accepts either.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"misTimetable":[{"row":[{"ALL_TI_YMD":"20250902","PERIO":"1","ITRT_CNTNT":"국어"}]}]}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()
	days, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday)
	if err != nil {
		t.Fatalf("FetchTimetable: %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("got %d days, want 5", len(days))
	}
	if days[1].Columns[0].Subject != "국어" {
		t.Errorf("Tuesday subject = %q, want 국어", days[1].Columns[0].Subject)
	}
}

func TestFetchTimetableEmptyResultIsErrNoSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다."}}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()
	days, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday)
	if !errors.Is(err, ErrNoSchedule) {
		t.Fatalf("err = %v, want ErrNoSchedule", err)
	}
	if days != nil {
		t.Errorf("days should be nil on empty result, got %v", days)
	}
}

func TestFetchTimetableStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()
	_, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", statusErr.StatusCode)
	}
	if Terminal(err) {
		t.Error("a transport error must not be terminal")
	}
}

func TestFetchTimetableDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	monday, friday := testWeek()
	_, err := client.FetchTimetable(context.Background(), testIdentity, monday, friday)

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
	if decodeErr.Endpoint != "hisTimetable" {
		t.Errorf("endpoint = %q, want hisTimetable", decodeErr.Endpoint)
	}
}

func TestSearchSchools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("SCHUL_NM"); got != "한성" {
			t.Errorf("SCHUL_NM = %q, want 한성", got)
		}
		w.Write([]byte(`{"schoolInfo":[{"row":[
			{"ATPT_OFDC_SC_NM":"","ATPT_OFCDC_SC_CODE":"B10","ATPT_OFCDC_SC_NM":"서울특별시교육청","SD_SCHUL_CODE":"7010084","SCHUL_NM":"한성과학고등학교","SCHUL_KND_SC_NM":"고등학교","ORG_RDNMA":"서울특별시 서대문구"}
		]}]}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	schools, err := client.SearchSchools(context.Background(), "한성", "고등학교")
	if err != nil {
		t.Fatalf("SearchSchools: %v", err)
	}
	if len(schools) != 1 {
		t.Fatalf("got %d schools, want 1", len(schools))
	}
	s := schools[0]
	if s.SchoolName != "한성과학고등학교" || s.OfficeCode != "B10" || s.Address != "서울특별시 서대문구" {
		t.Errorf("unexpected school: %+v", s)
	}
}

func TestFetchClasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"classInfo":[{"row":[
			{"GRADE":"1","CLASS_NM":"1"},
			{"GRADE":"1","CLASS_NM":"2"},
			{"GRADE":"2","CLASS_NM":"1"}
		]}]}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL("test-key", srv.URL)
	classes, err := client.FetchClasses(context.Background(), "B10", "7010084")
	if err != nil {
		t.Fatalf("FetchClasses: %v", err)
	}
	if len(classes) != 3 {
		t.Fatalf("got %d classes, want 3", len(classes))
	}
	if classes[2].Grade != "2" || classes[2].ClassName != "1" {
		t.Errorf("unexpected class: %+v", classes[2])
	}
}
