package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

type fakeClassifier struct {
	out   contractx.Classification
	calls int
	texts []string
}

func (f *fakeClassifier) Classify(ctx context.Context, userText string) contractx.Classification {
	f.calls++
	f.texts = append(f.texts, userText)
	return f.out
}

type fakeTools struct {
	calls []contractx.Intent

	logParams     contractx.LogParams
	editParams    contractx.EditParams
	profileParams contractx.ProfileParams
	summaryParams contractx.InteractionParams
	nbaParams     contractx.InteractionParams

	err error
}

func (f *fakeTools) LogInteraction(ctx context.Context, p contractx.LogParams) (contractx.LogResult, error) {
	f.calls = append(f.calls, contractx.IntentLogInteraction)
	f.logParams = p
	return contractx.LogResult{InteractionID: 1, HCPName: "Dr. Sharma"}, f.err
}

func (f *fakeTools) EditInteraction(ctx context.Context, p contractx.EditParams) (contractx.EditResult, error) {
	f.calls = append(f.calls, contractx.IntentEditInteraction)
	f.editParams = p
	return contractx.EditResult{Success: true, InteractionID: p.InteractionID}, f.err
}

func (f *fakeTools) FetchHCPProfile(ctx context.Context, p contractx.ProfileParams) (contractx.ProfileResult, error) {
	f.calls = append(f.calls, contractx.IntentFetchHCPProfile)
	f.profileParams = p
	return contractx.ProfileResult{Success: true}, f.err
}

func (f *fakeTools) GenerateInteractionSummary(ctx context.Context, p contractx.InteractionParams) (contractx.SummaryResult, error) {
	f.calls = append(f.calls, contractx.IntentGenerateSummary)
	f.summaryParams = p
	return contractx.SummaryResult{Success: true, Summary: "summary"}, f.err
}

func (f *fakeTools) RecommendNextBestAction(ctx context.Context, p contractx.InteractionParams) (contractx.RecommendationResult, error) {
	f.calls = append(f.calls, contractx.IntentRecommendNextBestAction)
	f.nbaParams = p
	return contractx.RecommendationResult{Success: true, Recommendation: "call back"}, f.err
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func newTestDispatcher(t *testing.T, classifier *fakeClassifier, tools *fakeTools) *Dispatcher {
	t.Helper()
	d, err := New(classifier, tools)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestDispatchRoutesEveryIntent(t *testing.T) {
	t.Parallel()

	for _, intent := range contractx.Intents {
		classifier := &fakeClassifier{out: contractx.Classification{Intent: intent}}
		tools := &fakeTools{}
		d := newTestDispatcher(t, classifier, tools)

		out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
			UserInput: "do something",
			Context:   contractx.DispatchContext{InteractionID: int64Ptr(3), HCPID: int64Ptr(2)},
		})
		if err != nil {
			t.Fatalf("%s: Dispatch() error = %v", intent, err)
		}
		if out.Intent != intent {
			t.Fatalf("%s: resolved intent = %s", intent, out.Intent)
		}
		if len(tools.calls) != 1 || tools.calls[0] != intent {
			t.Fatalf("%s: expected exactly one matching handler call, got %v", intent, tools.calls)
		}
		if out.Result == nil {
			t.Fatalf("%s: result must not be nil", intent)
		}
	}
}

func TestDispatchConvertsLogContext(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{out: contractx.Classification{Intent: contractx.IntentLogInteraction}}
	tools := &fakeTools{}
	d := newTestDispatcher(t, classifier, tools)

	date := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
		UserInput: "Met Dr. Sharma",
		Context:   contractx.DispatchContext{Channel: strPtr("Email"), InteractionDate: &date},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if tools.logParams.FreeText != "Met Dr. Sharma" {
		t.Fatalf("unexpected free text: %q", tools.logParams.FreeText)
	}
	if tools.logParams.Channel == nil || *tools.logParams.Channel != "Email" {
		t.Fatalf("unexpected channel: %v", tools.logParams.Channel)
	}
	if tools.logParams.InteractionDate == nil || !tools.logParams.InteractionDate.Equal(date) {
		t.Fatalf("unexpected date: %v", tools.logParams.InteractionDate)
	}
	if _, ok := out.Result.(contractx.LogResult); !ok {
		t.Fatalf("unexpected result type %T", out.Result)
	}
}

func TestDispatchPinnedIntentSkipsClassifier(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{out: contractx.Classification{Intent: contractx.IntentLogInteraction}}
	tools := &fakeTools{}
	d := newTestDispatcher(t, classifier, tools)

	out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
		Intent:  contractx.IntentEditInteraction,
		Context: contractx.DispatchContext{InteractionID: int64Ptr(9), Updates: map[string]any{"summary": "x"}},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if classifier.calls != 0 {
		t.Fatal("classifier must not run for a pinned intent")
	}
	if out.Intent != contractx.IntentEditInteraction || out.Degraded {
		t.Fatalf("unexpected result: %+v", out)
	}
	if tools.editParams.InteractionID != 9 || tools.editParams.Updates["summary"] != "x" {
		t.Fatalf("unexpected edit params: %+v", tools.editParams)
	}
}

func TestDispatchRejectsUnknownPinnedIntent(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	d := newTestDispatcher(t, &fakeClassifier{}, tools)

	_, err := d.Dispatch(context.Background(), contractx.DispatchRequest{Intent: "delete_everything"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(tools.calls) != 0 {
		t.Fatal("no handler may run")
	}
}

func TestDispatchCarriesDegradedClassification(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{out: contractx.Classification{Intent: contractx.IntentLogInteraction, Degraded: true}}
	d := newTestDispatcher(t, classifier, &fakeTools{})

	out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{UserInput: "???"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !out.Degraded || out.Intent != contractx.IntentLogInteraction {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDispatchUnroutableClassificationFallsBack(t *testing.T) {
	t.Parallel()

	classifier := &fakeClassifier{out: contractx.Classification{Intent: "smalltalk"}}
	tools := &fakeTools{}
	d := newTestDispatcher(t, classifier, tools)

	out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{UserInput: "hello"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Intent != contractx.DefaultIntent || !out.Degraded {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestDispatchMissingInteractionID(t *testing.T) {
	t.Parallel()

	cases := []contractx.Intent{
		contractx.IntentEditInteraction,
		contractx.IntentGenerateSummary,
		contractx.IntentRecommendNextBestAction,
	}
	for _, intent := range cases {
		tools := &fakeTools{}
		d := newTestDispatcher(t, &fakeClassifier{}, tools)

		out, err := d.Dispatch(context.Background(), contractx.DispatchRequest{Intent: intent})
		if err != nil {
			t.Fatalf("%s: Dispatch() error = %v", intent, err)
		}
		if len(tools.calls) != 0 {
			t.Fatalf("%s: handler must not run without an interaction id", intent)
		}

		var success bool
		var message string
		switch r := out.Result.(type) {
		case contractx.EditResult:
			success, message = r.Success, r.Error
		case contractx.SummaryResult:
			success, message = r.Success, r.Error
		case contractx.RecommendationResult:
			success, message = r.Success, r.Error
		default:
			t.Fatalf("%s: unexpected result type %T", intent, out.Result)
		}
		if success || message != "interaction_id is required" {
			t.Fatalf("%s: unexpected result %+v", intent, out.Result)
		}
	}
}

func TestDispatchProfileIgnoresBlankName(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{}
	d := newTestDispatcher(t, &fakeClassifier{}, tools)

	if _, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
		Intent:  contractx.IntentFetchHCPProfile,
		Context: contractx.DispatchContext{HCPName: strPtr("   ")},
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if tools.profileParams.HCPName != nil || tools.profileParams.HCPID != nil {
		t.Fatalf("blank name must be dropped: %+v", tools.profileParams)
	}

	if _, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
		Intent:  contractx.IntentFetchHCPProfile,
		Context: contractx.DispatchContext{HCPName: strPtr(" Sharma ")},
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if tools.profileParams.HCPName == nil || *tools.profileParams.HCPName != "Sharma" {
		t.Fatalf("unexpected name: %v", tools.profileParams.HCPName)
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	t.Parallel()

	handlerErr := errors.Join(contractx.ErrModelInvoke, errors.New("503"))
	tools := &fakeTools{err: handlerErr}
	d := newTestDispatcher(t, &fakeClassifier{}, tools)

	_, err := d.Dispatch(context.Background(), contractx.DispatchRequest{
		Intent:  contractx.IntentGenerateSummary,
		Context: contractx.DispatchContext{InteractionID: int64Ptr(1)},
	})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestNewRejectsIncompleteRouteTable(t *testing.T) {
	t.Parallel()

	routes := defaultRoutes()
	delete(routes, contractx.IntentFetchHCPProfile)

	_, err := newWithRoutes(&fakeClassifier{}, &fakeTools{}, routes)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeTools{}); err == nil {
		t.Fatal("expected error for nil classifier")
	}
	if _, err := New(&fakeClassifier{}, nil); err == nil {
		t.Fatal("expected error for nil tools")
	}
}
