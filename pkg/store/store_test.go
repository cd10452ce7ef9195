package store

import (
	"testing"

	"hoaportal/pkg/models"
)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir() + "/db"); err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestOwnerRoundtripAndEmailIndex(t *testing.T) {
	openTestStore(t)
	o := models.Owner{ID: "o1", Email: "Alice@Example.com", Name: "Alice", Role: models.RoleOwner}
	if err := SaveOwner(o); err != nil {
		t.Fatalf("SaveOwner: %v", err)
	}
	got, err := GetOwner("o1")
	if err != nil {
		t.Fatalf("GetOwner: %v", err)
	}
	if got.Email != o.Email || got.CreatedTS == 0 {
		t.Fatalf("unexpected owner: %+v", got)
	}
	// email lookup is case-insensitive
	byEmail, err := GetOwnerByEmail("alice@example.COM")
	if err != nil {
		t.Fatalf("GetOwnerByEmail: %v", err)
	}
	if byEmail.ID != "o1" {
		t.Fatalf("expected o1, got %s", byEmail.ID)
	}
	if _, err := GetOwnerByEmail("nobody@example.com"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountByOwner(t *testing.T) {
	openTestStore(t)
	if err := SaveAccount(models.Account{ID: "a1", OwnerID: "o1", Unit: "12B"}); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	acct, err := GetAccountByOwner("o1")
	if err != nil {
		t.Fatalf("GetAccountByOwner: %v", err)
	}
	if acct.ID != "a1" || acct.OpenedTS == 0 {
		t.Fatalf("unexpected account: %+v", acct)
	}
}

func TestChargesAndPaymentsKeepInsertionOrder(t *testing.T) {
	openTestStore(t)
	for i, amt := range []string{"10", "20", "30"} {
		c := models.Charge{ID: "c" + amt, AccountID: "a1", Amount: amt, TS: int64(100 + i)}
		if err := AppendCharge(c); err != nil {
			t.Fatalf("AppendCharge: %v", err)
		}
	}
	if err := AppendPayment(models.Payment{ID: "p1", AccountID: "a1", Amount: "15", TS: 150}); err != nil {
		t.Fatalf("AppendPayment: %v", err)
	}

	charges, err := ListCharges("a1")
	if err != nil {
		t.Fatalf("ListCharges: %v", err)
	}
	if len(charges) != 3 || charges[0].ID != "c10" || charges[2].ID != "c30" {
		t.Fatalf("unexpected charges: %+v", charges)
	}
	payments, err := ListPayments("a1")
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 1 || payments[0].ID != "p1" {
		t.Fatalf("unexpected payments: %+v", payments)
	}
	// accounts don't leak into each other
	other, err := ListCharges("a2")
	if err != nil {
		t.Fatalf("ListCharges a2: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty, got %+v", other)
	}
}

func TestCardsLifecycle(t *testing.T) {
	openTestStore(t)
	c := models.CreditCard{ID: "card1", OwnerID: "o1", Brand: "Visa", Last4: "4242", ExpMonth: 4, ExpYear: 2030}
	if err := SaveCard(c); err != nil {
		t.Fatalf("SaveCard: %v", err)
	}
	got, err := GetCard("o1", "card1")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if got.Masked() != "Visa ****4242" {
		t.Fatalf("unexpected mask: %s", got.Masked())
	}
	cards, err := ListCards("o1")
	if err != nil || len(cards) != 1 {
		t.Fatalf("ListCards: %v %+v", err, cards)
	}
	if err := DeleteCard("o1", "card1"); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if _, err := GetCard("o1", "card1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionPurge(t *testing.T) {
	openTestStore(t)
	now := nowNano()
	live := models.Session{Token: "t-live", OwnerID: "o1", RefreshableTS: now + int64(1e12)}
	dead := models.Session{Token: "t-dead", OwnerID: "o1", RefreshableTS: now - 1}
	for _, s := range []models.Session{live, dead} {
		if err := SaveSession(s); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}

	n, err := PurgeSessions(now, true)
	if err != nil {
		t.Fatalf("PurgeSessions dry run: %v", err)
	}
	if n != 1 {
		t.Fatalf("dry run expected 1, got %d", n)
	}
	// dry run removes nothing
	if _, err := GetSession("t-dead"); err != nil {
		t.Fatalf("dead session should survive dry run: %v", err)
	}

	n, err = PurgeSessions(now, false)
	if err != nil || n != 1 {
		t.Fatalf("PurgeSessions: n=%d err=%v", n, err)
	}
	if _, err := GetSession("t-dead"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := GetSession("t-live"); err != nil {
		t.Fatalf("live session should survive: %v", err)
	}
}

func TestMessageThreadIndexes(t *testing.T) {
	openTestStore(t)
	root := models.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob", Body: "hi", TS: 1}
	if err := SaveMessage(root, ""); err != nil {
		t.Fatalf("SaveMessage root: %v", err)
	}
	reply := models.Message{ID: "m2", SenderID: "bob", ReceiverID: "alice", Body: "hey", ParentID: "m1", TS: 2}
	if err := SaveMessage(reply, "m1"); err != nil {
		t.Fatalf("SaveMessage reply: %v", err)
	}
	nested := models.Message{ID: "m3", SenderID: "alice", ReceiverID: "bob", Body: "so", ParentID: "m2", TS: 3}
	if err := SaveMessage(nested, "m1"); err != nil {
		t.Fatalf("SaveMessage nested: %v", err)
	}

	// root resolution walks the parent chain from any member
	for _, id := range []string{"m1", "m2", "m3"} {
		r, err := ThreadRoot(id)
		if err != nil {
			t.Fatalf("ThreadRoot(%s): %v", id, err)
		}
		if r != "m1" {
			t.Fatalf("ThreadRoot(%s) = %s, want m1", id, r)
		}
	}

	thread, err := ListThread("m1")
	if err != nil {
		t.Fatalf("ListThread: %v", err)
	}
	if len(thread) != 3 || thread[0].ID != "m1" || thread[2].ID != "m3" {
		t.Fatalf("unexpected thread: %+v", thread)
	}

	inbox, err := ListInbox("bob")
	if err != nil {
		t.Fatalf("ListInbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("bob inbox expected 2, got %+v", inbox)
	}
	outbox, err := ListOutbox("bob")
	if err != nil {
		t.Fatalf("ListOutbox: %v", err)
	}
	if len(outbox) != 1 || outbox[0].ID != "m2" {
		t.Fatalf("bob outbox unexpected: %+v", outbox)
	}
}

func TestSurveyResponsesLastWriteWins(t *testing.T) {
	openTestStore(t)
	s := models.Survey{ID: "s1", Title: "Pool", Question: "Extend hours?", Options: []string{"yes", "no"}}
	if err := SaveSurvey(s); err != nil {
		t.Fatalf("SaveSurvey: %v", err)
	}
	if err := SaveSurveyResponse(models.SurveyResponse{SurveyID: "s1", OwnerID: "o1", Choice: 0}); err != nil {
		t.Fatalf("SaveSurveyResponse: %v", err)
	}
	if err := SaveSurveyResponse(models.SurveyResponse{SurveyID: "s1", OwnerID: "o1", Choice: 1}); err != nil {
		t.Fatalf("SaveSurveyResponse again: %v", err)
	}
	resps, err := ListSurveyResponses("s1")
	if err != nil {
		t.Fatalf("ListSurveyResponses: %v", err)
	}
	if len(resps) != 1 || resps[0].Choice != 1 {
		t.Fatalf("expected single response with choice 1, got %+v", resps)
	}
	// responses don't show up as surveys
	surveys, err := ListSurveys()
	if err != nil || len(surveys) != 1 {
		t.Fatalf("ListSurveys: %v %+v", err, surveys)
	}
}

func TestDocumentRoundtrip(t *testing.T) {
	openTestStore(t)
	content := []byte("%PDF-1.4 fake")
	d := models.Document{ID: "d1", Name: "budget.pdf", ContentType: "application/pdf", UploadedBy: "o1"}
	if err := SaveDocument(d, content); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	meta, err := GetDocument("d1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if meta.Size != int64(len(content)) || meta.TS == 0 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	got, err := GetDocumentContent("d1")
	if err != nil || string(got) != string(content) {
		t.Fatalf("content mismatch: %v %q", err, got)
	}
	docs, err := ListDocuments()
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListDocuments: %v %+v", err, docs)
	}
}

func TestAnnouncementsOrderedByTime(t *testing.T) {
	openTestStore(t)
	for i, id := range []string{"a1", "a2", "a3"} {
		a := models.Announcement{ID: id, AuthorID: "b1", Title: id, Body: "x", TS: int64(10 + i)}
		if err := SaveAnnouncement(a); err != nil {
			t.Fatalf("SaveAnnouncement: %v", err)
		}
	}
	anns, err := ListAnnouncements()
	if err != nil {
		t.Fatalf("ListAnnouncements: %v", err)
	}
	if len(anns) != 3 || anns[0].ID != "a1" || anns[2].ID != "a3" {
		t.Fatalf("unexpected order: %+v", anns)
	}
}
