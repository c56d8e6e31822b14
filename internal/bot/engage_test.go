package bot

import (
	"context"
	"errors"
	"testing"

	"xbot/internal/xapi"
)

func TestReplyToMentions_SkipsProcessed(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())
	f.gen.response = "Thanks for reaching out!"
	f.platform.mentions = []xapi.Mention{
		{ID: "m1", Text: "@bot love this", AuthorID: "a1", AuthorUsername: "alice"},
		{ID: "m2", Text: "@bot question", AuthorID: "a2", AuthorUsername: "bob"},
	}

	if err := f.store.MarkMentionProcessed("m2", "a2", "bob"); err != nil {
		t.Fatalf("MarkMentionProcessed: %v", err)
	}

	replied, err := f.pub.ReplyToMentions(context.Background(), true)
	if err != nil {
		t.Fatalf("ReplyToMentions: %v", err)
	}
	if replied != 1 {
		t.Fatalf("replied=%d, want 1", replied)
	}

	if inReplyTo := f.platform.replies["Thanks for reaching out!"]; inReplyTo != "m1" {
		t.Fatalf("reply target=%q, want m1", inReplyTo)
	}

	done, _ := f.store.HasProcessedMention("m1")
	if !done {
		t.Fatal("replied mention not marked processed")
	}
}

func TestReplyToMentions_DeclinedNotMarked(t *testing.T) {
	f := newFixture(t, "n\n", defaultQuota())
	f.gen.response = "A reply."
	f.platform.mentions = []xapi.Mention{
		{ID: "m1", Text: "@bot hi", AuthorID: "a1", AuthorUsername: "alice"},
	}

	replied, err := f.pub.ReplyToMentions(context.Background(), true)
	if err != nil {
		t.Fatalf("ReplyToMentions: %v", err)
	}
	if replied != 0 {
		t.Fatalf("replied=%d, want 0", replied)
	}

	// Declined mentions stay eligible for the next run.
	done, _ := f.store.HasProcessedMention("m1")
	if done {
		t.Fatal("declined mention was marked processed")
	}
}

func TestReplyToMentions_ReplyPromptCarriesMention(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())
	f.gen.response = "Good question!"
	f.platform.mentions = []xapi.Mention{
		{ID: "m1", Text: "@bot how do goroutines work?", AuthorID: "a1", AuthorUsername: "alice"},
	}

	if _, err := f.pub.ReplyToMentions(context.Background(), true); err != nil {
		t.Fatalf("ReplyToMentions: %v", err)
	}
	if want := "Tweet to reply to: @bot how do goroutines work?"; f.gen.lastUser != want {
		t.Fatalf("lastUser=%q, want %q", f.gen.lastUser, want)
	}
}

func TestRetweetPost(t *testing.T) {
	f := newFixture(t, "", defaultQuota())

	if err := f.pub.RetweetPost(context.Background(), "t1"); err != nil {
		t.Fatalf("RetweetPost: %v", err)
	}
	if len(f.platform.retweets) != 1 || f.platform.retweets[0] != "t1" {
		t.Fatalf("retweets=%v", f.platform.retweets)
	}

	err := f.pub.RetweetPost(context.Background(), "t1")
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("err=%v, want ErrDuplicateContent", err)
	}
	if len(f.platform.retweets) != 1 {
		t.Fatal("duplicate retweet was transmitted")
	}
}

func TestQuoteRetweet(t *testing.T) {
	f := newFixture(t, "y\n", defaultQuota())
	f.gen.response = "Underrated thread on testing."

	id, err := f.pub.QuoteRetweet(context.Background(), "t9", "original tweet text", true)
	if err != nil {
		t.Fatalf("QuoteRetweet: %v", err)
	}
	if id != "100" {
		t.Fatalf("id=%q", id)
	}
	if quoted := f.platform.quotes["Underrated thread on testing."]; quoted != "t9" {
		t.Fatalf("quoted=%q, want t9", quoted)
	}

	done, _ := f.store.HasRetweeted("t9")
	if !done {
		t.Fatal("quote retweet not recorded")
	}

	// Second attempt is blocked by the retweet log.
	_, err = f.pub.QuoteRetweet(context.Background(), "t9", "original tweet text", true)
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("err=%v, want ErrDuplicateContent", err)
	}
}
