package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Incidents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test_key", r.Header.Get("api_key"))
		assert.Equal(t, "extra", r.Header.Get("X-Custom"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"ElevatorIncidents": [
				{
					"UnitName": "A03N01",
					"UnitType": "ESCALATOR",
					"StationCode": "A03",
					"StationName": "Dupont Circle",
					"SymptomDescription": "MINOR REPAIR"
				},
				{
					"UnitName": "B02S03",
					"UnitType": "ELEVATOR",
					"StationCode": "B02",
					"StationName": "Judiciary Square",
					"SymptomDescription": "SAFETY INSPECTION"
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test_key", map[string]string{"X-Custom": "extra"})

	incidents, err := client.Incidents(context.Background())
	require.NoError(t, err)
	require.Len(t, incidents, 2)

	assert.Equal(t, "A03N01", incidents[0].UnitID)
	assert.Equal(t, "ESCALATOR", incidents[0].UnitType)
	assert.Equal(t, "Dupont Circle", incidents[0].StationName)
	assert.Equal(t, "MINOR REPAIR", incidents[0].SymptomDescription)
	assert.Equal(t, "B02S03", incidents[1].UnitID)
}

func TestHTTPClient_Incidents_EmptySnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ElevatorIncidents": []}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", nil)

	incidents, err := client.Incidents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, incidents)
}

func TestHTTPClient_Incidents_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", nil)

	_, err := client.Incidents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPClient_Incidents_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", nil)

	_, err := client.Incidents(context.Background())
	require.Error(t, err)
}
