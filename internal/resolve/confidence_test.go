package resolve

import "testing"

func TestComputeConfidence_NoSources(t *testing.T) {
	confidence, verified := computeConfidence(nil)
	if confidence != 0.0 || verified {
		t.Errorf("got (%v, %v), want (0.0, false)", confidence, verified)
	}
}

func TestComputeConfidence_SingleSource(t *testing.T) {
	confidence, verified := computeConfidence([]sourceAgent{{source: "redfin", name: "Jane Doe"}})
	if confidence != 0.5 || verified {
		t.Errorf("got (%v, %v), want (0.5, false)", confidence, verified)
	}
}

func TestComputeConfidence_TwoSourcesAgree(t *testing.T) {
	agents := []sourceAgent{
		{source: "redfin", name: "Jane Doe"},
		{source: "zillow", name: "Jane Doe"},
	}
	confidence, verified := computeConfidence(agents)
	if !verified {
		t.Fatal("expected verified=true when two sources agree")
	}
	if confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", confidence)
	}
}

func TestComputeConfidence_ThreeSourcesAgreeCapsAtOne(t *testing.T) {
	agents := []sourceAgent{
		{source: "redfin", name: "Jane Doe"},
		{source: "zillow", name: "Jane Doe"},
		{source: "realtor", name: "Jane Doe"},
	}
	confidence, verified := computeConfidence(agents)
	if !verified {
		t.Fatal("expected verified=true")
	}
	if confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 (capped)", confidence)
	}
}

func TestComputeConfidence_TwoSourcesDisagree(t *testing.T) {
	agents := []sourceAgent{
		{source: "redfin", name: "Jane Doe"},
		{source: "zillow", name: "Bob Smith"},
	}
	confidence, verified := computeConfidence(agents)
	if verified {
		t.Error("expected verified=false on disagreement")
	}
	if confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4", confidence)
	}
}
