package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/contrack/contrack/internal/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	types    map[string]*DocumentType
	optional map[string][]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		types:    make(map[string]*DocumentType),
		optional: make(map[string][]string),
	}
}

func (m *mockRepo) ListTypes(_ context.Context) ([]*DocumentType, error) {
	var result []*DocumentType
	for _, dt := range m.types {
		result = append(result, dt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRepo) GetType(_ context.Context, name string) (*DocumentType, error) {
	dt, ok := m.types[name]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return dt, nil
}

func (m *mockRepo) UpsertType(_ context.Context, dt *DocumentType) error {
	m.types[dt.Name] = dt
	return nil
}

func (m *mockRepo) DeleteType(_ context.Context, name string) error {
	delete(m.types, name)
	return nil
}

func (m *mockRepo) OptionalDocs(_ context.Context, hospitalType string) ([]string, error) {
	return m.optional[hospitalType], nil
}

func (m *mockRepo) SetOptionalDocs(_ context.Context, hospitalType string, names []string) error {
	m.optional[hospitalType] = names
	return nil
}

type mockResyncer struct {
	calls []string
	docs  [][]string
	err   error
}

func (m *mockResyncer) ResyncRequired(_ context.Context, hospitalType string, optionalDocs []string) error {
	m.calls = append(m.calls, hospitalType)
	m.docs = append(m.docs, optionalDocs)
	return m.err
}

// rollbackTx runs fn against the mock repo and restores the optional-set map
// when fn fails, mirroring transaction rollback.
func rollbackTx(repo *mockRepo) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		saved := make(map[string][]string, len(repo.optional))
		for k, v := range repo.optional {
			saved[k] = v
		}
		if err := fn(ctx); err != nil {
			repo.optional = saved
			return err
		}
		return nil
	}
}

func newTestService() (*Service, *mockRepo, *mockResyncer) {
	repo := newMockRepo()
	rs := &mockResyncer{}
	svc := NewService(repo, rs, rollbackTx(repo))
	for _, dt := range []*DocumentType{
		{Name: "tax_card", DisplayName: "Tax Card Copy"},
		{Name: "civil_defense", DisplayName: "Civil Defense Certificate"},
		{Name: "procedure_video", DisplayName: "Procedure Video", VideoAllowed: true, VideoOnly: true},
	} {
		repo.types[dt.Name] = dt
	}
	return svc, repo, rs
}

func TestRequiredFor_DefinedByOptionalSet(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.optional["private"] = []string{"tax_card"}

	for doc, want := range map[string]bool{
		"tax_card":      false,
		"civil_defense": true,
	} {
		got, err := svc.RequiredFor(context.Background(), "private", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("RequiredFor(private, %s) = %v, want %v", doc, got, want)
		}
	}
}

func TestRequiredFor_UnknownHospitalTypeAllRequired(t *testing.T) {
	svc, _, _ := newTestService()

	required, err := svc.RequiredFor(context.Background(), "charity", "tax_card")
	if err != nil {
		t.Fatalf("unknown hospital type must not error: %v", err)
	}
	if !required {
		t.Error("everything is required for a hospital type with no configured entries")
	}
}

func TestSetOptionalDocs_TriggersResync(t *testing.T) {
	svc, _, rs := newTestService()

	err := svc.SetOptionalDocs(context.Background(), "private", []string{"tax_card"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.calls) != 1 || rs.calls[0] != "private" {
		t.Fatalf("expected one resync for 'private', got %v", rs.calls)
	}
	if len(rs.docs[0]) != 1 || rs.docs[0][0] != "tax_card" {
		t.Errorf("resync received wrong optional set: %v", rs.docs[0])
	}
}

func TestSetOptionalDocs_FailedResyncRollsBackMapping(t *testing.T) {
	svc, repo, rs := newTestService()
	repo.optional["private"] = []string{"civil_defense"}
	rs.err = errors.New("resync failed")

	err := svc.SetOptionalDocs(context.Background(), "private", []string{"tax_card"})
	if err == nil {
		t.Fatal("expected the resync failure to surface")
	}
	got := repo.optional["private"]
	if len(got) != 1 || got[0] != "civil_defense" {
		t.Errorf("mapping must be unchanged after a failed resync, got %v", got)
	}
}

func TestSetOptionalDocs_UnknownDocName(t *testing.T) {
	svc, _, rs := newTestService()

	err := svc.SetOptionalDocs(context.Background(), "private", []string{"no_such_doc"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rs.calls) != 0 {
		t.Error("failed validation must not trigger a resync")
	}
}

func TestUpsertType_DefaultsDisplayName(t *testing.T) {
	svc, repo, _ := newTestService()

	if err := svc.UpsertType(context.Background(), &DocumentType{Name: "license"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.types["license"].DisplayName != "license" {
		t.Errorf("expected display name to default to internal name")
	}
}

func TestUpsertType_VideoOnlyRequiresVideoAllowed(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.UpsertType(context.Background(), &DocumentType{Name: "x", VideoOnly: true})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteType_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.DeleteType(context.Background(), "ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
