package analyze

import (
	"context"
	"errors"
	"testing"
)

type stubDirectory struct {
	matches map[string]*DirectoryMatch
	err     error
	lookups int
}

func (d *stubDirectory) FindByNameOrEmail(_ context.Context, name, _ string) (*DirectoryMatch, error) {
	d.lookups++
	if d.err != nil {
		return nil, d.err
	}
	return d.matches[name], nil
}

func TestResolveContactsDiscountsMatches(t *testing.T) {
	dir := &stubDirectory{matches: map[string]*DirectoryMatch{
		"Jane Smith": {ID: 7, Name: "Jane Smith", Email: "jane@acme.example"},
	}}
	a := newTestAnalyzer(&stubProvider{}, dir)

	in := []Contact{
		{Name: "Jane Smith", Confidence: 0.9},
		{Name: "Unknown Person", Confidence: 0.85},
	}
	out, errs := a.resolveContacts(context.Background(), in)

	if errs != 0 {
		t.Fatalf("lookup errors: got %d, want 0", errs)
	}
	if len(out) != 2 {
		t.Fatalf("contacts: got %d, want 2", len(out))
	}
	if !out[0].ExistsInSystem {
		t.Error("matched contact must be flagged existsInSystem")
	}
	got, want := out[0].Confidence, 0.9*crossRefDiscount
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("matched confidence: got %v, want %v", got, want)
	}
	if out[1].ExistsInSystem || out[1].Confidence != 0.85 {
		t.Errorf("unmatched contact must be untouched: %+v", out[1])
	}
}

func TestResolveContactsDropsBelowFloorAfterDiscount(t *testing.T) {
	// 0.7 × 0.8 = 0.56, under the 0.6 contact floor.
	dir := &stubDirectory{matches: map[string]*DirectoryMatch{
		"Jane Smith": {ID: 7, Name: "Jane Smith"},
	}}
	a := newTestAnalyzer(&stubProvider{}, dir)

	out, _ := a.resolveContacts(context.Background(),
		[]Contact{{Name: "Jane Smith", Confidence: 0.7}})
	if len(out) != 0 {
		t.Fatalf("discounted contact below floor must drop, got %+v", out)
	}
}

func TestResolveContactsLookupError(t *testing.T) {
	dir := &stubDirectory{err: errors.New("stub: database locked")}
	a := newTestAnalyzer(&stubProvider{}, dir)

	in := []Contact{{Name: "Jane Smith", Confidence: 0.9}}
	out, errs := a.resolveContacts(context.Background(), in)

	if errs != 1 {
		t.Fatalf("lookup errors: got %d, want 1", errs)
	}
	if len(out) != 1 || out[0].ExistsInSystem || out[0].Confidence != 0.9 {
		t.Fatalf("errored lookup must keep contact unchanged: %+v", out)
	}
}

func TestResolveContactsNilDirectory(t *testing.T) {
	a := newTestAnalyzer(&stubProvider{}, nil)

	in := []Contact{{Name: "Jane Smith", Confidence: 0.9}}
	out, errs := a.resolveContacts(context.Background(), in)
	if errs != 0 || len(out) != 1 || out[0].ExistsInSystem {
		t.Fatalf("nil directory must pass contacts through: %+v (errs=%d)", out, errs)
	}
}
