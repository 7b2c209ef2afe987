package correos

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

func TestClientTrackRequest(t *testing.T) {
	const expectedURL = "http://correos.test/tracking/v1/shipments/ENV-AB12CD34"
	respBody := `{"shipmentCode":"ENV-AB12CD34","events":[
		{"code":"ADMITIDO","description":"Envio admitido","location":"Madrid","timestamp":"2026-03-01T09:00:00Z"},
		{"code":"TRANSITO","description":"En transito","location":"Zaragoza","timestamp":"2026-03-02T07:30:00Z"},
		{"code":"ADUANAS","description":"Retenido","location":"Zaragoza","timestamp":"2026-03-02T08:00:00Z"}
	]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://correos.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	info, err := client.Track(context.Background(), "ENV-AB12CD34")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("authorization header missing")
	}
	if len(info.Events) != 2 {
		t.Fatalf("expected unmodeled scan dropped, got %d events", len(info.Events))
	}
	latest := info.Latest()
	if latest == nil || latest.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("unexpected latest event %+v", latest)
	}
	if latest.Location == nil || *latest.Location != "Zaragoza" {
		t.Fatalf("unexpected location %+v", latest.Location)
	}
}

func TestClientTrackUnregisteredLabel(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader(`{"error":"not found"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithBaseURL("http://correos.test"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	info, err := client.Track(context.Background(), "ENV-UNKNOWN1")
	if err != nil {
		t.Fatalf("expected nil error for unregistered label, got %v", err)
	}
	if info != nil {
		t.Fatalf("expected nil info, got %+v", info)
	}
}

func TestMapStatusCode(t *testing.T) {
	status, ok := MapStatusCode("entregado")
	if !ok || status != enums.ShipmentStatusDelivered {
		t.Fatalf("unexpected mapping %v %v", status, ok)
	}
	if _, ok := MapStatusCode("INCIDENCIA"); ok {
		t.Fatalf("expected unmodeled code to be dropped")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
