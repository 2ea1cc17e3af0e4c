package scrapers

import (
	"testing"

	"github.com/dispodojo/agentfinder/internal/property"
)

type stubSource struct{ name string }

func (s stubSource) Name() string { return s.name }
func (s stubSource) Search(property.Property) (*property.AgentInfo, error) {
	return nil, nil
}

func TestRegistry_RegisterGetOrdered(t *testing.T) {
	r := NewRegistry()
	r.Register(stubSource{"redfin"})
	r.Register(stubSource{"zillow"})

	if got := r.Get("redfin"); got == nil || got.Name() != "redfin" {
		t.Errorf("Get(redfin) = %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}

	ordered := r.Ordered([]string{"zillow", "missing", "redfin"})
	if len(ordered) != 2 || ordered[0].Name() != "zillow" || ordered[1].Name() != "redfin" {
		t.Errorf("Ordered = %v, want [zillow redfin]", ordered)
	}
}

func TestRegistry_All_PreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubSource{"redfin"})
	r.Register(stubSource{"zillow"})
	r.Register(stubSource{"redfin"}) // re-register: no duplicate order entry

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all[0].Name() != "redfin" || all[1].Name() != "zillow" {
		t.Errorf("unexpected order: %v", []string{all[0].Name(), all[1].Name()})
	}
}
