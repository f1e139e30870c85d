package api

import (
	"net/http"
	"testing"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/store"
)

func TestProfileHandler_ListIncludesActive(t *testing.T) {
	s := newTestStore(t)
	p := newTestPipeline(t, s)
	handler := NewProfileHandler(s, p)

	rec := do(t, handler, http.MethodGet, "/api/profiles", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	resp := decode[listProfilesResponse](t, rec)
	if len(resp.Profiles) != 1 {
		t.Fatalf("expected the default profile only, got %d", len(resp.Profiles))
	}
	if resp.Profiles[0].Name != "default" || !resp.Profiles[0].Active {
		t.Errorf("unexpected profile: %+v", resp.Profiles[0])
	}
}

func TestProfileHandler_CRUD(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	rec := do(t, handler, http.MethodPost, "/api/profiles", profileRequest{Name: "desk", MinOpen: float(0.1)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body)
	}
	created := decode[profileResponse](t, rec)
	if created.ID == "" || created.Name != "desk" {
		t.Fatalf("unexpected created profile: %+v", created)
	}
	if created.MinOpen == nil || *created.MinOpen != 0.1 || created.MaxOpen != nil {
		t.Errorf("bounds = %v/%v, want 0.1/unset", created.MinOpen, created.MaxOpen)
	}

	t.Run("get", func(t *testing.T) {
		rec := do(t, handler, http.MethodGet, "/api/profiles/"+created.ID, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if got := decode[profileResponse](t, rec); got.Name != "desk" {
			t.Errorf("Name = %q, want desk", got.Name)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		rec := do(t, handler, http.MethodPost, "/api/profiles", profileRequest{Name: "desk"})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("update", func(t *testing.T) {
		rec := do(t, handler, http.MethodPut, "/api/profiles/"+created.ID,
			profileRequest{Name: "standing", MinOpen: float(0.08), MaxOpen: float(0.3)})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		got, _ := s.Profiles().GetByID(created.ID)
		if got.Name != "standing" || got.MaxOpen == nil || *got.MaxOpen != 0.3 {
			t.Errorf("profile not updated: %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, handler, http.MethodDelete, "/api/profiles/"+created.ID, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		rec = do(t, handler, http.MethodGet, "/api/profiles/"+created.ID, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d after delete, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestProfileHandler_BadRequests(t *testing.T) {
	s := newTestStore(t)
	handler := NewProfileHandler(s, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{name: "invalid json", method: http.MethodPost, target: "/api/profiles", body: "{bad", want: http.StatusBadRequest},
		{name: "missing name", method: http.MethodPost, target: "/api/profiles", body: profileRequest{}, want: http.StatusBadRequest},
		{name: "get missing", method: http.MethodGet, target: "/api/profiles/nope", want: http.StatusNotFound},
		{name: "update missing", method: http.MethodPut, target: "/api/profiles/nope", body: profileRequest{Name: "x"}, want: http.StatusNotFound},
		{name: "delete missing", method: http.MethodDelete, target: "/api/profiles/nope", want: http.StatusNotFound},
		{name: "collection patch", method: http.MethodPatch, target: "/api/profiles", want: http.StatusMethodNotAllowed},
		{name: "activate with get", method: http.MethodGet, target: "/api/profiles/nope/activate", want: http.StatusMethodNotAllowed},
		{name: "activate without pipeline", method: http.MethodPost, target: "/api/profiles/nope/activate", want: http.StatusServiceUnavailable},
		{name: "unknown action", method: http.MethodGet, target: "/api/profiles/nope/export", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, handler, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestProfileHandler_ActivateAndHistory(t *testing.T) {
	s := newTestStore(t)
	p := newTestPipeline(t, s)
	handler := NewProfileHandler(s, p)

	sofa := &store.Profile{ID: "sofa", Name: "sofa", MinOpen: float(0.05), MaxOpen: float(0.25)}
	if err := s.Profiles().Create(sofa); err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	rec := do(t, handler, http.MethodPost, "/api/profiles/sofa/activate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body)
	}
	state := decode[app.State](t, rec)
	if state.ProfileID != "sofa" || state.MaxOpen == nil || *state.MaxOpen != 0.25 {
		t.Errorf("state after activate = %+v", state)
	}

	t.Run("active profile cannot be deleted", func(t *testing.T) {
		rec := do(t, handler, http.MethodDelete, "/api/profiles/sofa", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("updating the active profile reloads bounds", func(t *testing.T) {
		rec := do(t, handler, http.MethodPut, "/api/profiles/sofa", profileRequest{MinOpen: float(0.07), MaxOpen: float(0.27)})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if st := p.State(); st.MinOpen == nil || *st.MinOpen != 0.07 {
			t.Errorf("MinOpen = %v, want 0.07", st.MinOpen)
		}
	})

	t.Run("history", func(t *testing.T) {
		if _, err := p.Execute(t.Context(), app.CmdCalibrateClosed); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		rec := do(t, handler, http.MethodGet, "/api/profiles/sofa/history", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		resp := decode[historyResponse](t, rec)
		if len(resp.Events) != 1 || resp.Events[0].Bound != "closed" {
			t.Errorf("unexpected history: %+v", resp.Events)
		}
	})

	t.Run("activate missing", func(t *testing.T) {
		rec := do(t, handler, http.MethodPost, "/api/profiles/nope/activate", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}
