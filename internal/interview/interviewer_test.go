package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/common"
)

type fakeGateway struct {
	replies []*ai.Completion
	errs    []error
	calls   [][]ai.Message
	block   bool
}

func (f *fakeGateway) Complete(ctx context.Context, messages []ai.Message) (*ai.Completion, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, messages)

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	if err != nil {
		return nil, err
	}

	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return &ai.Completion{Text: "next question", TotalTokens: 1}, nil
}

func TestNewSession(t *testing.T) {
	s := NewSession("c1", "Senior Go engineer")

	if s.CandidateID != "c1" {
		t.Fatalf("unexpected candidate id: %s", s.CandidateID)
	}
	if s.Len() != 1 || s.TotalTokens() != 0 {
		t.Fatalf("expected fresh session, got len=%d tokens=%d", s.Len(), s.TotalTokens())
	}

	first := s.Transcript()[0]
	if first.Role != ai.RoleSystem {
		t.Fatalf("expected system message, got %s", first.Role)
	}
	if !strings.Contains(first.Content, "Senior Go engineer") || strings.Contains(first.Content, jobDescriptionPlaceholder) {
		t.Fatalf("job description not rendered into prompt: %q", first.Content)
	}
	if !strings.Contains(first.Content, "interviewer") {
		t.Fatalf("prompt does not set the interviewer role: %q", first.Content)
	}
}

func TestTranscriptIsACopy(t *testing.T) {
	s := NewSession("c1", "jd")
	tr := s.Transcript()
	tr[0].Content = "changed"

	if s.Transcript()[0].Content == "changed" {
		t.Fatal("transcript accessor leaked internal state")
	}
}

func TestAdvanceAccumulatesTranscriptAndTokens(t *testing.T) {
	gw := &fakeGateway{replies: []*ai.Completion{
		{Text: "Tell me about goroutines.", TotalTokens: 42},
		{Text: "And channels?", TotalTokens: 17},
		{Text: "Thanks.", TotalTokens: 0},
	}}
	iv := NewInterviewer(gw, zap.NewNop(), 0)

	s := NewSession("c1", "jd")
	inputs := []string{"Hi", "They are lightweight threads", "bye"}
	wantTokens := []int{42, 59, 59}

	for n, text := range inputs {
		reply, next, err := iv.Advance(context.Background(), s, text)
		if err != nil {
			t.Fatalf("turn %d: unexpected error: %v", n, err)
		}
		if reply != gw.replies[n].Text {
			t.Fatalf("turn %d: unexpected reply %q", n, reply)
		}
		if next.Len() != 1+2*(n+1) {
			t.Fatalf("turn %d: expected transcript length %d, got %d", n, 1+2*(n+1), next.Len())
		}
		if next.TotalTokens() != wantTokens[n] {
			t.Fatalf("turn %d: expected %d tokens, got %d", n, wantTokens[n], next.TotalTokens())
		}

		sent := gw.calls[n]
		if len(sent) != s.Len()+1 {
			t.Fatalf("turn %d: gateway got %d messages, want %d", n, len(sent), s.Len()+1)
		}
		if last := sent[len(sent)-1]; last.Role != ai.RoleUser || last.Content != text {
			t.Fatalf("turn %d: unexpected last message sent: %+v", n, last)
		}

		tr := next.Transcript()
		if tr[len(tr)-2].Content != text || tr[len(tr)-1].Role != ai.RoleAssistant {
			t.Fatalf("turn %d: unexpected tail %+v", n, tr[len(tr)-2:])
		}
		s = next
	}

	want := []ai.Role{ai.RoleSystem, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant, ai.RoleUser, ai.RoleAssistant}
	for idx, msg := range s.Transcript() {
		if msg.Role != want[idx] {
			t.Fatalf("message %d: expected role %s, got %s", idx, want[idx], msg.Role)
		}
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	iv := NewInterviewer(&fakeGateway{}, zap.NewNop(), 0)
	s := NewSession("c1", "jd")
	before := s.Transcript()

	_, next, err := iv.Advance(context.Background(), s, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Len() != len(before) || s.TotalTokens() != 0 {
		t.Fatalf("input session changed: len=%d tokens=%d", s.Len(), s.TotalTokens())
	}

	// Branching from the same parent must not affect the first child.
	_, other, err := iv.Advance(context.Background(), s, "different")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Transcript()[1].Content != "hello" || other.Transcript()[1].Content != "different" {
		t.Fatalf("sessions share storage: %+v / %+v", next.Transcript(), other.Transcript())
	}
}

func TestAdvanceGatewayFailureKeepsSession(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{name: "error", gw: &fakeGateway{errs: []error{errors.New("503 unavailable")}}},
		{name: "nil completion", gw: &fakeGateway{replies: []*ai.Completion{nil}}},
		{name: "negative usage", gw: &fakeGateway{replies: []*ai.Completion{{Text: "x", TotalTokens: -1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv := NewInterviewer(tt.gw, zap.NewNop(), 0)
			s := NewSession("c1", "jd")

			reply, next, err := iv.Advance(context.Background(), s, "hello")
			if !errors.Is(err, common.ErrGateway) {
				t.Fatalf("expected gateway error, got %v", err)
			}
			if reply != "" {
				t.Fatalf("expected no reply, got %q", reply)
			}
			if next.Len() != 1 || next.TotalTokens() != 0 {
				t.Fatalf("session changed on failure: len=%d tokens=%d", next.Len(), next.TotalTokens())
			}
		})
	}
}

func TestAdvanceRetryAfterFailure(t *testing.T) {
	gw := &fakeGateway{
		errs:    []error{errors.New("boom")},
		replies: []*ai.Completion{nil, {Text: "ok", TotalTokens: 5}},
	}
	iv := NewInterviewer(gw, zap.NewNop(), 0)
	s := NewSession("c1", "jd")

	if _, _, err := iv.Advance(context.Background(), s, "hello"); err == nil {
		t.Fatal("expected first call to fail")
	}

	reply, next, err := iv.Advance(context.Background(), s, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok" || next.Len() != 3 || next.TotalTokens() != 5 {
		t.Fatalf("unexpected result: reply=%q len=%d tokens=%d", reply, next.Len(), next.TotalTokens())
	}
}

func TestAdvanceTimeout(t *testing.T) {
	iv := NewInterviewer(&fakeGateway{block: true}, zap.NewNop(), 20*time.Millisecond)
	s := NewSession("c1", "jd")

	_, next, err := iv.Advance(context.Background(), s, "hello")
	if !errors.Is(err, common.ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if next.Len() != 1 {
		t.Fatalf("session changed on timeout: %d", next.Len())
	}
}

func TestAdvanceValidation(t *testing.T) {
	gw := &fakeGateway{}
	iv := NewInterviewer(gw, zap.NewNop(), 0)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, _, err := iv.Advance(context.Background(), NewSession("c1", "jd"), text); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", text, err)
		}
	}

	if _, _, err := iv.Advance(context.Background(), Session{CandidateID: "c1"}, "hello"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation error for unbound session, got %v", err)
	}

	if len(gw.calls) != 0 {
		t.Fatalf("gateway must not be called on invalid input, got %d calls", len(gw.calls))
	}
}

func TestAdvanceLogsTokens(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	iv := NewInterviewer(&fakeGateway{replies: []*ai.Completion{{Text: "q", TotalTokens: 9}}}, zap.New(core), 0)

	if _, _, err := iv.Advance(context.Background(), NewSession("c1", "jd"), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := observed.FilterMessage("interview turn completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["candidate_id"] != "c1" || fields["total_tokens"] != int64(9) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
