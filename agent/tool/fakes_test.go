package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	promptx "github.com/tanpawarit/hcp-interaction-agent/agent/prompt"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	systems []string
	inputs  []string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt string, userText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, systemPrompt)
	f.inputs = append(f.inputs, userText)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// memoryRepo mimics the bun repository closely enough for handler tests.
type memoryRepo struct {
	mu           sync.Mutex
	hcps         []storex.HCPProfile
	interactions []storex.Interaction
	updates      [][]string
	queries      int
	failWith     error
}

func (r *memoryRepo) LogInteraction(_ context.Context, hcpName string, specialty *string, it *storex.Interaction) (*storex.HCPProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if r.failWith != nil {
		return nil, r.failWith
	}
	if strings.TrimSpace(hcpName) == "" {
		return nil, storex.ErrEmptyHCPName
	}

	var hcp *storex.HCPProfile
	for i := range r.hcps {
		if r.hcps[i].Name == hcpName && sameText(r.hcps[i].Specialty, specialty) {
			hcp = &r.hcps[i]
			break
		}
	}
	if hcp == nil {
		r.hcps = append(r.hcps, storex.HCPProfile{ID: int64(len(r.hcps) + 1), Name: hcpName, Specialty: specialty})
		hcp = &r.hcps[len(r.hcps)-1]
	}

	it.ID = int64(len(r.interactions) + 1)
	it.HCPID = hcp.ID
	r.interactions = append(r.interactions, *it)
	out := *hcp
	return &out, nil
}

func (r *memoryRepo) GetInteraction(_ context.Context, id int64) (*storex.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, it := range r.interactions {
		if it.ID == id {
			out := it
			out.HCP = r.hcpByID(it.HCPID)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: interaction id=%d", storex.ErrNotFound, id)
}

func (r *memoryRepo) ListInteractions(context.Context) ([]storex.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	out := append([]storex.Interaction(nil), r.interactions...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].InteractionDate.After(out[j].InteractionDate) })
	return out, nil
}

func (r *memoryRepo) UpdateInteraction(_ context.Context, it *storex.Interaction, columns ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if r.failWith != nil {
		return r.failWith
	}
	r.updates = append(r.updates, columns)
	for i := range r.interactions {
		if r.interactions[i].ID == it.ID {
			updated := *it
			updated.HCP = nil
			r.interactions[i] = updated
			return nil
		}
	}
	return storex.ErrNotFound
}

func (r *memoryRepo) GetHCP(_ context.Context, id int64) (*storex.HCPProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	if hcp := r.hcpByID(id); hcp != nil {
		return hcp, nil
	}
	return nil, storex.ErrNotFound
}

func (r *memoryRepo) FindHCPByName(_ context.Context, name string) (*storex.HCPProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	for _, hcp := range r.hcps {
		if strings.Contains(strings.ToLower(hcp.Name), strings.ToLower(name)) {
			out := hcp
			return &out, nil
		}
	}
	return nil, storex.ErrNotFound
}

func (r *memoryRepo) RecentInteractions(_ context.Context, hcpID int64, limit int) ([]storex.Interaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	var out []storex.Interaction
	for _, it := range r.interactions {
		if it.HCPID == hcpID {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].InteractionDate.After(out[j].InteractionDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) hcpByID(id int64) *storex.HCPProfile {
	for _, hcp := range r.hcps {
		if hcp.ID == id {
			out := hcp
			return &out
		}
	}
	return nil
}

func (r *memoryRepo) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []contractx.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt contractx.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) recorded() []contractx.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]contractx.Event(nil), p.events...)
}

func drain(t *testing.T, ts *Toolset) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.Drain(ctx); err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtr(s string) *string { return &s }

func newTestToolset(t *testing.T, repo *memoryRepo, extractor, writer *fakeCompleter, opts ...Option) *Toolset {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	ts, err := NewToolset(repo, extractor, writer, promptx.LoadPromptSet(), opts...)
	if err != nil {
		t.Fatalf("NewToolset() error = %v", err)
	}
	return ts
}

func seededPrompts() promptx.PromptSet {
	return promptx.LoadPromptSet()
}
