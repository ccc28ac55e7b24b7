package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climagrid/internal/core"
	"climagrid/internal/store"
	"climagrid/internal/types"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var obsNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newObservationsRouter(st ObservationStore) *chi.Mux {
	router := chi.NewRouter()
	handler := NewObservationsHandler(st, core.NewValidator(nil), nil, fixedClock{obsNow})
	handler.RegisterRoutes(router)
	return router
}

func seedRecord(st *store.ObservationStore, metric types.Metric, lat, lon float64, age time.Duration) {
	st.Append(types.ObservationRecord{
		Observation: types.Observation{
			Timestamp: obsNow.Add(-age),
			Metric:    metric,
			Value:     1.5,
			Latitude:  lat,
			Longitude: lon,
			Source:    "user",
		},
		ID:          uuid.New().String(),
		SubmittedAt: obsNow,
	})
}

func decodeRecords(t *testing.T, body []byte) []types.ObservationRecord {
	t.Helper()
	var resp struct {
		Data []types.ObservationRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Data
}

func TestObservationsHandler_CreateWithDefaults(t *testing.T) {
	st := store.NewObservationStore()
	router := newObservationsRouter(st)

	body := `{"metric":"temperature","value":-2.5,"latitude":40.0,"longitude":-74.0}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data types.ObservationRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Data.ID)
	_, err := uuid.Parse(resp.Data.ID)
	assert.NoError(t, err)
	assert.Equal(t, types.MetricTemperature, resp.Data.Metric)
	assert.Equal(t, -2.5, resp.Data.Value)
	assert.Equal(t, "user", resp.Data.Source)
	assert.True(t, resp.Data.Timestamp.Equal(obsNow))
	assert.True(t, resp.Data.SubmittedAt.Equal(obsNow))

	assert.Equal(t, 1, st.Len())
}

func TestObservationsHandler_CreateExplicitFields(t *testing.T) {
	st := store.NewObservationStore()
	router := newObservationsRouter(st)

	body := `{
		"metric": "windspeed",
		"value": 22.4,
		"latitude": 55.7,
		"longitude": 12.6,
		"timestamp": "2024-01-01T09:30:00Z",
		"location_name": "Copenhagen Harbour",
		"source": "weather-station-7",
		"notes": "gusts from the north"
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data types.ObservationRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "weather-station-7", resp.Data.Source)
	assert.Equal(t, "Copenhagen Harbour", resp.Data.LocationName)
	assert.True(t, resp.Data.Timestamp.Equal(time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)))
}

func TestObservationsHandler_CreateValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing value", `{"metric":"temperature","latitude":40.0,"longitude":-74.0}`},
		{"missing metric", `{"value":1.0,"latitude":40.0,"longitude":-74.0}`},
		{"latitude out of range", `{"metric":"temperature","value":1.0,"latitude":91.0,"longitude":-74.0}`},
		{"longitude out of range", `{"metric":"temperature","value":1.0,"latitude":40.0,"longitude":-181.0}`},
		{"unknown field", `{"metric":"temperature","value":1.0,"latitude":40.0,"longitude":-74.0,"extra":true}`},
		{"empty body", ``},
		{"malformed json", `{"metric":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewObservationStore()
			router := newObservationsRouter(st)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, st.Len())
		})
	}
}

func TestObservationsHandler_CreateUnknownMetric(t *testing.T) {
	st := store.NewObservationStore()
	router := newObservationsRouter(st)

	body := `{"metric":"pressure","value":1.0,"latitude":40.0,"longitude":-74.0}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidMetric), decodeErrorCode(t, rec.Body.Bytes()))
}

func TestObservationsHandler_ListUnfiltered(t *testing.T) {
	st := store.NewObservationStore()
	seedRecord(st, types.MetricTemperature, 40.0, -74.0, time.Hour)
	seedRecord(st, types.MetricHumidity, 10.0, 10.0, 2*time.Hour)
	router := newObservationsRouter(st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeRecords(t, rec.Body.Bytes()), 2)
}

func TestObservationsHandler_ListGeoFilterNeedsBothCoords(t *testing.T) {
	st := store.NewObservationStore()
	seedRecord(st, types.MetricTemperature, 40.0, -74.0, time.Hour)
	seedRecord(st, types.MetricTemperature, 10.0, 10.0, time.Hour)
	router := newObservationsRouter(st)

	// Latitude alone does not activate the geo filter.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?latitude=40.0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeRecords(t, rec.Body.Bytes()), 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?latitude=40.0&longitude=-74.0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeRecords(t, rec.Body.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, 40.0, records[0].Latitude)
}

func TestObservationsHandler_ListMetricAndAgeFilters(t *testing.T) {
	st := store.NewObservationStore()
	seedRecord(st, types.MetricTemperature, 40.0, -74.0, time.Hour)
	seedRecord(st, types.MetricHumidity, 40.0, -74.0, time.Hour)
	seedRecord(st, types.MetricTemperature, 40.0, -74.0, 100*time.Hour)
	router := newObservationsRouter(st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?metric=temperature", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	// Default 72-hour window drops the 100-hour-old record.
	assert.Len(t, decodeRecords(t, rec.Body.Bytes()), 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?metric=temperature&hours=120", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeRecords(t, rec.Body.Bytes()), 2)
}

func TestObservationsHandler_ListInvalidParams(t *testing.T) {
	cases := []struct {
		name     string
		target   string
		wantCode types.ErrorCode
	}{
		{"bad metric", "/observations?metric=pressure", types.ErrCodeValidationInvalidMetric},
		{"bad latitude", "/observations?latitude=abc", types.ErrCodeValidationInvalidLat},
		{"bad radius", "/observations?radius_km=501", types.ErrCodeValidationInvalidRadius},
		{"radius too small", "/observations?radius_km=0.05", types.ErrCodeValidationInvalidRadius},
		{"bad hours", "/observations?hours=241", types.ErrCodeValidationInvalidHours},
		{"center out of range", "/observations?latitude=91&longitude=0", types.ErrCodeValidationInvalidLat},
		{"nan latitude", "/observations?latitude=NaN&longitude=0", types.ErrCodeValidationInvalidLat},
		{"nan longitude", "/observations?latitude=0&longitude=nan", types.ErrCodeValidationInvalidLon},
		{"inf latitude", "/observations?latitude=%2BInf&longitude=0", types.ErrCodeValidationInvalidLat},
		{"nan radius", "/observations?radius_km=NaN", types.ErrCodeValidationInvalidRadius},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newObservationsRouter(store.NewObservationStore())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(tc.wantCode), decodeErrorCode(t, rec.Body.Bytes()))
		})
	}
}

// A NaN center must be rejected at the boundary. Every comparison against
// NaN is false, so a NaN coordinate that slipped through would disable the
// geo filter and match every record regardless of radius.
func TestObservationsHandler_ListRejectsNaNCenter(t *testing.T) {
	st := store.NewObservationStore()
	seedRecord(st, types.MetricTemperature, 40.71, -74.0, time.Hour)  // New York
	seedRecord(st, types.MetricTemperature, -33.87, 151.2, time.Hour) // Sydney
	router := newObservationsRouter(st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?latitude=NaN&longitude=NaN&radius_km=0.1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidLat), decodeErrorCode(t, rec.Body.Bytes()))
}

func TestObservationsHandler_SubmitThenList(t *testing.T) {
	st := store.NewObservationStore()
	router := newObservationsRouter(st)

	body := `{"metric":"precipitation","value":0.8,"latitude":40.0,"longitude":-74.0}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/observations", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/observations?metric=precipitation&latitude=40.0&longitude=-74.0&radius_km=75", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	records := decodeRecords(t, rec.Body.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, 0.8, records[0].Value)
}
