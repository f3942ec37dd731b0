package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/certen/contract-coordinator/pkg/signature"
)

func TestDisabledAdapterReturnsRemoteUnavailable(t *testing.T) {
	a := New(Config{Enabled: false})
	kp, _ := signature.GenerateKeyPair()

	_, err := a.CreateRecord(context.Background(), "hash", map[string]string{"a": "b"}, kp)
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestCreateRecordSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Signing-Key") == "" || r.Header.Get("X-Signature") == "" {
			t.Errorf("expected signing headers on request")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"recordId": "rec-1"})
	}))
	defer srv.Close()

	a := New(Config{Enabled: true, BaseURL: srv.URL, Timeout: 2 * time.Second})
	kp, _ := signature.GenerateKeyPair()

	recordID, err := a.CreateRecord(context.Background(), "contract-uuid", map[string]string{"title": "x"}, kp)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if recordID != "rec-1" {
		t.Fatalf("expected rec-1, got %q", recordID)
	}
}

func TestFetchRecordNotFoundClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a := New(Config{Enabled: true, BaseURL: srv.URL, Timeout: 2 * time.Second})
	kp, _ := signature.GenerateKeyPair()

	var out map[string]any
	err := a.FetchRecord(context.Background(), "rec-1", "hash", kp, &out)
	if !errors.Is(err, ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}
}

func TestUpdateRecordAuthFailedClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := New(Config{Enabled: true, BaseURL: srv.URL, Timeout: 2 * time.Second})
	kp, _ := signature.GenerateKeyPair()

	err := a.UpdateRecord(context.Background(), "rec-1", "hash", map[string]string{}, kp)
	if !errors.Is(err, ErrRemoteAuthFailed) {
		t.Fatalf("expected ErrRemoteAuthFailed, got %v", err)
	}
}

func TestUnreachableServerClassifiedUnavailable(t *testing.T) {
	a := New(Config{Enabled: true, BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})
	kp, _ := signature.GenerateKeyPair()

	err := a.DeleteRecord(context.Background(), "rec-1", "hash", kp)
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}
