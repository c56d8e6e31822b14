package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"xbot/internal/gemini"
	"xbot/internal/ledger"
	"xbot/internal/xapi"
)

type fakeGen struct {
	response string
	err      error
	// last prompts seen, for assertions
	lastSystem string
	lastUser   string
}

func (f *fakeGen) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

type fakePlatform struct {
	nextID   string
	err      error
	mentions []xapi.Mention

	posts    []string
	replies  map[string]string // text -> in_reply_to
	quotes   map[string]string // text -> quoted id
	retweets []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		nextID:  "100",
		replies: make(map[string]string),
		quotes:  make(map[string]string),
	}
}

func (f *fakePlatform) CreatePost(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.posts = append(f.posts, text)
	return f.nextID, nil
}

func (f *fakePlatform) CreateReply(ctx context.Context, text, inReplyTo string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.replies[text] = inReplyTo
	return f.nextID, nil
}

func (f *fakePlatform) CreateQuote(ctx context.Context, text, quotedID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.quotes[text] = quotedID
	return f.nextID, nil
}

func (f *fakePlatform) Retweet(ctx context.Context, tweetID string) error {
	if f.err != nil {
		return f.err
	}
	f.retweets = append(f.retweets, tweetID)
	return nil
}

func (f *fakePlatform) Mentions(ctx context.Context) ([]xapi.Mention, error) {
	return f.mentions, f.err
}

type fixture struct {
	pub      *Publisher
	store    *ledger.Store
	gen      *fakeGen
	platform *fakePlatform
	out      *bytes.Buffer
}

func newFixture(t *testing.T, answers string, quota Quota) *fixture {
	t.Helper()

	store, err := ledger.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gen := &fakeGen{response: "A generated post."}
	platform := newFakePlatform()
	out := &bytes.Buffer{}

	pub := NewPublisher(store, gen, platform, gemini.NewDrafter("test bot"), quota, nil, strings.NewReader(answers), out)
	return &fixture{pub: pub, store: store, gen: gen, platform: platform, out: out}
}

func defaultQuota() Quota {
	return Quota{Threshold: 450, Max: 500}
}

func TestPublish_ApprovedPostRecordsState(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())

	id, err := f.pub.Publish(context.Background(), "hello from tests", true)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if id != "100" {
		t.Fatalf("id=%q, want 100", id)
	}
	if len(f.platform.posts) != 1 || f.platform.posts[0] != "hello from tests" {
		t.Fatalf("posts=%v", f.platform.posts)
	}

	count, _ := f.store.PostCount()
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
	posted, _ := f.store.HasPosted("hello from tests")
	if !posted {
		t.Fatal("post not recorded")
	}

	output := f.out.String()
	if !strings.Contains(output, "POST PREVIEW") {
		t.Errorf("preview not shown:\n%s", output)
	}
	if !strings.Contains(output, xapi.PostURL("100")) {
		t.Errorf("post URL not shown:\n%s", output)
	}
}

func TestPublish_DeclinedApprovalChangesNothing(t *testing.T) {
	f := newFixture(t, "n\n", defaultQuota())

	_, err := f.pub.Publish(context.Background(), "hello", true)
	if !errors.Is(err, ErrApprovalDeclined) {
		t.Fatalf("err=%v, want ErrApprovalDeclined", err)
	}
	if len(f.platform.posts) != 0 {
		t.Fatal("declined post was transmitted")
	}
	count, _ := f.store.PostCount()
	if count != 0 {
		t.Fatalf("count=%d, want 0", count)
	}
}

func TestPublish_AutoSkipsPrompt(t *testing.T) {
	// No input available at all; auto mode must not read it.
	f := newFixture(t, "", defaultQuota())

	if _, err := f.pub.Publish(context.Background(), "auto post", false); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if strings.Contains(f.out.String(), "POST PREVIEW") {
		t.Fatal("auto mode showed the approval preview")
	}
}

func TestPublish_QuotaExhausted(t *testing.T) {
	f := newFixture(t, "y\n", Quota{Threshold: 1, Max: 2})

	for i := 0; i < 2; i++ {
		if err := f.store.IncrementPostCount(); err != nil {
			t.Fatalf("IncrementPostCount: %v", err)
		}
	}

	_, err := f.pub.Publish(context.Background(), "over quota", true)
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Fatalf("err=%v, want ErrQuotaExhausted", err)
	}
	if len(f.platform.posts) != 0 {
		t.Fatal("blocked post was transmitted")
	}
}

func TestPublish_ThresholdWarning(t *testing.T) {
	f := newFixture(t, "y\n", Quota{Threshold: 1, Max: 10})

	if err := f.store.IncrementPostCount(); err != nil {
		t.Fatalf("IncrementPostCount: %v", err)
	}

	if _, err := f.pub.Publish(context.Background(), "near limit", true); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.Contains(f.out.String(), "Approaching monthly post limit") {
		t.Fatalf("threshold warning missing:\n%s", f.out.String())
	}
}

func TestPublish_DuplicateBlocked(t *testing.T) {
	f := newFixture(t, "y\ny\n", defaultQuota())

	if _, err := f.pub.Publish(context.Background(), "once only", true); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	_, err := f.pub.Publish(context.Background(), "once only", true)
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("err=%v, want ErrDuplicateContent", err)
	}
	if len(f.platform.posts) != 1 {
		t.Fatalf("posts=%d, want 1", len(f.platform.posts))
	}
}

func TestPublish_Validation(t *testing.T) {
	f := newFixture(t, "", defaultQuota())

	_, err := f.pub.Publish(context.Background(), "   ", false)
	if !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("err=%v, want ErrEmptyDraft", err)
	}

	_, err = f.pub.Publish(context.Background(), strings.Repeat("z", 281), false)
	if !errors.Is(err, ErrDraftTooLong) {
		t.Fatalf("err=%v, want ErrDraftTooLong", err)
	}
}

func TestPublish_PaidTierFallback(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())
	f.platform.err = fmt.Errorf("%w: status 402", xapi.ErrPaidTierRequired)

	_, err := f.pub.Publish(context.Background(), "needs credits", true)
	if !errors.Is(err, xapi.ErrPaidTierRequired) {
		t.Fatalf("err=%v, want ErrPaidTierRequired", err)
	}

	output := f.out.String()
	if !strings.Contains(output, "copy-paste manually") {
		t.Errorf("manual fallback missing:\n%s", output)
	}
	if !strings.Contains(output, "needs credits") {
		t.Errorf("draft not shown in fallback:\n%s", output)
	}

	// Failed publish must not touch quota or dedup state.
	count, _ := f.store.PostCount()
	if count != 0 {
		t.Fatalf("count=%d, want 0", count)
	}
	posted, _ := f.store.HasPosted("needs credits")
	if posted {
		t.Fatal("failed post was recorded")
	}
}

func TestGenerateDraft_CleansOutput(t *testing.T) {
	f := newFixture(t, "", defaultQuota())
	f.gen.response = "  \"Quoted draft from the model.\"  "

	draft, err := f.pub.GenerateDraft(context.Background(), "testing in Go")
	if err != nil {
		t.Fatalf("GenerateDraft: %v", err)
	}
	if draft != "Quoted draft from the model." {
		t.Fatalf("draft=%q", draft)
	}
	if !strings.Contains(f.gen.lastSystem, "test bot") {
		t.Fatalf("drafter personality missing from system prompt: %q", f.gen.lastSystem)
	}
	if !strings.Contains(f.gen.lastUser, "testing in Go") {
		t.Fatalf("topic missing from user prompt: %q", f.gen.lastUser)
	}
}

func TestGenerateDraft_EmptyModelOutput(t *testing.T) {
	f := newFixture(t, "", defaultQuota())
	f.gen.response = "  \"\"  "

	_, err := f.pub.GenerateDraft(context.Background(), "anything")
	if !errors.Is(err, ErrEmptyDraft) {
		t.Fatalf("err=%v, want ErrEmptyDraft", err)
	}
}

func TestCopilot_GeneratesAndGates(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())

	id, err := f.pub.Copilot(context.Background(), "shipping side projects")
	if err != nil {
		t.Fatalf("Copilot: %v", err)
	}
	if id != "100" {
		t.Fatalf("id=%q", id)
	}
	if len(f.platform.posts) != 1 || f.platform.posts[0] != "A generated post." {
		t.Fatalf("posts=%v", f.platform.posts)
	}
	if !strings.Contains(f.out.String(), "POST PREVIEW") {
		t.Fatal("copilot skipped the approval gate")
	}
}
