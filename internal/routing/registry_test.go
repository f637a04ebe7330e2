package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

// countingOwner is a minimal handler owner whose routes record which owner
// served them.
type countingOwner struct {
	name string
	hits int
}

func ownerEntry(path string, methods ...string) Entry[*countingOwner] {
	return Entry[*countingOwner]{
		Name:    "route:" + path,
		Path:    path,
		Methods: methods,
		Handler: func(o *countingOwner) echo.HandlerFunc {
			return func(c echo.Context) error {
				o.hits++
				return c.String(http.StatusOK, o.name)
			}
		},
	}
}

func TestBind_DefaultsToGET(t *testing.T) {
	r := New(ownerEntry("/things"))
	bound := r.Bind(&countingOwner{name: "a"})

	routes := bound.Routes()
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	if len(routes[0].Methods) != 1 || routes[0].Methods[0] != http.MethodGet {
		t.Errorf("expected default GET, got %v", routes[0].Methods)
	}
}

func TestBind_OwnersAreIndependent(t *testing.T) {
	r := New(ownerEntry("/ping"))

	first := &countingOwner{name: "first"}
	second := &countingOwner{name: "second"}

	e1 := echo.New()
	if err := r.Bind(first).Apply(e1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2 := echo.New()
	if err := r.Bind(second).Apply(e2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e2.ServeHTTP(rec, req)

	if rec.Body.String() != "second" {
		t.Errorf("expected second owner's handler, got %q", rec.Body.String())
	}
	if first.hits != 0 {
		t.Errorf("first owner served %d requests meant for the second", first.hits)
	}
	if second.hits != 1 {
		t.Errorf("expected 1 hit on second owner, got %d", second.hits)
	}
}

func TestBind_DoesNotMutateRegistry(t *testing.T) {
	r := New(ownerEntry("/a"), ownerEntry("/b", http.MethodPost))
	before := r.Len()

	r.Bind(&countingOwner{})
	r.Bind(&countingOwner{})

	if r.Len() != before {
		t.Errorf("binding changed registry size from %d to %d", before, r.Len())
	}
}

func TestApply_RegistersAllMethods(t *testing.T) {
	r := New(ownerEntry("/both", http.MethodGet, http.MethodPost))
	owner := &countingOwner{name: "o"}

	e := echo.New()
	if err := r.Bind(owner).Apply(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, "/both", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s /both returned %d", method, rec.Code)
		}
	}
	if owner.hits != 2 {
		t.Errorf("expected 2 hits, got %d", owner.hits)
	}
}

func TestApply_RejectsUnsupportedMethod(t *testing.T) {
	r := New(ownerEntry("/weird", "TELEPORT"))
	if err := r.Bind(&countingOwner{}).Apply(echo.New()); err == nil {
		t.Fatal("expected error for unsupported method")
	}
}
