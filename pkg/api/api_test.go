package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hoaportal/pkg/api"
	"hoaportal/pkg/auth"
	"hoaportal/pkg/models"
	"hoaportal/pkg/store"
)

// portal wires the full request path the server runs in production:
// gateway middleware in front of the API router.
type portal struct {
	h   http.Handler
	mgr *auth.Manager
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	if err := store.Open(t.TempDir() + "/db"); err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mgr := auth.NewManager(time.Minute, time.Hour)
	inner := api.Handler(api.Options{Sessions: mgr, MaxUpload: 1 << 20})
	sec := auth.SecConfig{RPS: 10_000, Burst: 10_000}
	return &portal{h: auth.AuthenticateRequestMiddleware(sec, mgr)(inner), mgr: mgr}
}

func (p *portal) seed(t *testing.T, email, password, role string) models.Owner {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	o := models.Owner{
		ID:           "seed-" + email,
		Email:        email,
		Name:         "Seeded " + role,
		Unit:         "1A",
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := store.SaveOwner(o); err != nil {
		t.Fatalf("SaveOwner: %v", err)
	}
	acct := models.Account{ID: "acct-" + o.ID, OwnerID: o.ID, Unit: o.Unit}
	if err := store.SaveAccount(acct); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	return o
}

func (p *portal) token(t *testing.T, o models.Owner) string {
	t.Helper()
	s, err := p.mgr.Issue(o)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return s.Token
}

func (p *portal) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	p.h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestLoginRefreshLogoutFlow(t *testing.T) {
	p := newPortal(t)
	p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)

	rec := p.do(t, http.MethodPost, "/v1/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var tok struct {
		Token string `json:"token"`
	}
	decode(t, rec, &tok)
	if tok.Token == "" {
		t.Fatal("login returned empty token")
	}

	if rec := p.do(t, http.MethodGet, "/v1/owners/me", tok.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("me with fresh token: %d", rec.Code)
	}

	rec = p.do(t, http.MethodPost, "/v1/refresh-token", "", map[string]string{"token": tok.Token})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", rec.Code, rec.Body.String())
	}
	var rotated struct {
		Token string `json:"token"`
	}
	decode(t, rec, &rotated)
	if rotated.Token == "" || rotated.Token == tok.Token {
		t.Fatalf("refresh did not rotate: %q", rotated.Token)
	}

	if rec := p.do(t, http.MethodGet, "/v1/owners/me", tok.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old token after rotation: %d", rec.Code)
	}
	if rec := p.do(t, http.MethodGet, "/v1/owners/me", rotated.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("rotated token: %d", rec.Code)
	}

	if rec := p.do(t, http.MethodPost, "/v1/logout", rotated.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := p.do(t, http.MethodGet, "/v1/owners/me", rotated.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token after logout: %d", rec.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	p := newPortal(t)
	p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)

	rec := p.do(t, http.MethodPost, "/v1/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rec.Code)
	}
	rec = p.do(t, http.MethodPost, "/v1/login", "", map[string]string{"email": "alice@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: %d", rec.Code)
	}
}

func TestLedgerEndToEnd(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	board := p.seed(t, "bob@example.com", "hunter22", models.RoleBoard)
	ownerTok := p.token(t, owner)
	boardTok := p.token(t, board)

	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	rec := p.do(t, http.MethodPost, "/v1/accounts/acct-"+owner.ID+"/charges", boardTok, map[string]interface{}{
		"amount": "50", "description": "January dues", "ts": jan1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post charge: %d %s", rec.Code, rec.Body.String())
	}

	// owner stores a card and pays the dues with it
	rec = p.do(t, http.MethodPost, "/v1/cards", ownerTok, map[string]interface{}{
		"brand": "Visa", "last4": "4242", "exp_month": 4, "exp_year": time.Now().Year() + 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add card: %d %s", rec.Code, rec.Body.String())
	}
	var card struct {
		ID string `json:"id"`
	}
	decode(t, rec, &card)

	rec = p.do(t, http.MethodPost, "/v1/accounts/me/payments", ownerTok, map[string]interface{}{
		"amount": "50", "card_id": card.ID, "description": "dues payment",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: %d %s", rec.Code, rec.Body.String())
	}
	var pay struct {
		CardInfo string `json:"card_info"`
	}
	decode(t, rec, &pay)
	if pay.CardInfo != "Visa ****4242" {
		t.Fatalf("card info not denormalized: %q", pay.CardInfo)
	}

	rec = p.do(t, http.MethodGet, "/v1/accounts/me", ownerTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("account: %d %s", rec.Code, rec.Body.String())
	}
	var acct struct {
		ID      string `json:"id"`
		Balance string `json:"balance"`
	}
	decode(t, rec, &acct)
	if acct.ID != "acct-"+owner.ID || acct.Balance != "0.00" {
		t.Fatalf("account summary: %+v", acct)
	}

	rec = p.do(t, http.MethodGet, "/v1/accounts/me/ledger", ownerTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ledger: %d %s", rec.Code, rec.Body.String())
	}
	var led struct {
		AccountID string `json:"account_id"`
		Balance   string `json:"balance"`
		Entries   []struct {
			Kind    string `json:"kind"`
			Balance string `json:"balance"`
		} `json:"entries"`
		Years []struct {
			Year int `json:"year"`
		} `json:"years"`
	}
	decode(t, rec, &led)
	if led.Balance != "0.00" {
		t.Fatalf("balance = %q", led.Balance)
	}
	if len(led.Entries) != 2 {
		t.Fatalf("entries = %+v", led.Entries)
	}
	// display order is newest first: the payment, then the charge
	if led.Entries[0].Kind != "payment" || led.Entries[0].Balance != "0.00" {
		t.Fatalf("first display entry: %+v", led.Entries[0])
	}
	if led.Entries[1].Kind != "charge" || led.Entries[1].Balance != "50.00" {
		t.Fatalf("second display entry: %+v", led.Entries[1])
	}
	if len(led.Years) != 2 {
		t.Fatalf("expected payment year and charge year groups, got %+v", led.Years)
	}

	// payment history stays renderable after the card is removed
	if rec := p.do(t, http.MethodDelete, "/v1/cards/"+card.ID, ownerTok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete card: %d", rec.Code)
	}
	rec = p.do(t, http.MethodGet, "/v1/accounts/me/ledger", ownerTok, nil)
	if rec.Code != http.StatusOK || len(led.Entries) != 2 {
		t.Fatalf("ledger after card delete: %d", rec.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	board := p.seed(t, "bob@example.com", "hunter22", models.RoleBoard)
	admin := p.seed(t, "root@example.com", "hunter22", models.RoleAdmin)
	ownerTok := p.token(t, owner)
	boardTok := p.token(t, board)
	adminTok := p.token(t, admin)

	if rec := p.do(t, http.MethodGet, "/v1/owners", ownerTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("owner listing directory: %d", rec.Code)
	}
	if rec := p.do(t, http.MethodGet, "/v1/owners", boardTok, nil); rec.Code != http.StatusOK {
		t.Fatalf("board listing directory: %d", rec.Code)
	}

	newOwner := map[string]string{
		"email": "carol@example.com", "name": "Carol", "unit": "2B", "password": "longenough",
	}
	if rec := p.do(t, http.MethodPost, "/v1/owners", boardTok, newOwner); rec.Code != http.StatusForbidden {
		t.Fatalf("board creating owner: %d", rec.Code)
	}
	rec := p.do(t, http.MethodPost, "/v1/owners", adminTok, newOwner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin creating owner: %d %s", rec.Code, rec.Body.String())
	}
	var created models.Owner
	decode(t, rec, &created)
	if created.PasswordHash != "" {
		t.Fatal("password hash leaked in response")
	}
	if _, err := store.GetAccountByOwner(created.ID); err != nil {
		t.Fatalf("created owner has no account: %v", err)
	}

	if rec := p.do(t, http.MethodPost, "/v1/owners", adminTok, newOwner); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: %d", rec.Code)
	}
	short := map[string]string{"email": "dave@example.com", "name": "Dave", "password": "short"}
	if rec := p.do(t, http.MethodPost, "/v1/owners", adminTok, short); rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: %d", rec.Code)
	}
}

func TestMessagingAndThreadReconstruction(t *testing.T) {
	p := newPortal(t)
	alice := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	bob := p.seed(t, "bob@example.com", "hunter22", models.RoleOwner)
	carol := p.seed(t, "carol@example.com", "hunter22", models.RoleOwner)
	aliceTok := p.token(t, alice)
	bobTok := p.token(t, bob)
	carolTok := p.token(t, carol)

	rec := p.do(t, http.MethodPost, "/v1/messages", aliceTok, map[string]string{
		"receiver_id": bob.ID, "subject": "Fence", "body": "Your fence is leaning.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: %d %s", rec.Code, rec.Body.String())
	}
	var m1 models.Message
	decode(t, rec, &m1)

	rec = p.do(t, http.MethodPost, "/v1/messages", bobTok, map[string]string{
		"receiver_id": alice.ID, "body": "Fixed it.", "parent_id": m1.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply: %d %s", rec.Code, rec.Body.String())
	}
	var m2 models.Message
	decode(t, rec, &m2)

	// non-participants cannot read or reply
	if rec := p.do(t, http.MethodGet, "/v1/messages/"+m1.ID, carolTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("outsider read: %d", rec.Code)
	}
	rec = p.do(t, http.MethodPost, "/v1/messages", carolTok, map[string]string{
		"receiver_id": alice.ID, "body": "butting in", "parent_id": m1.ID,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("outsider reply: %d", rec.Code)
	}
	rec = p.do(t, http.MethodPost, "/v1/messages", aliceTok, map[string]string{
		"receiver_id": "no-such-owner", "body": "hello?",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown receiver: %d", rec.Code)
	}

	// the thread resolves identically from any message in it
	for _, id := range []string{m1.ID, m2.ID} {
		rec = p.do(t, http.MethodGet, "/v1/messages/"+id+"/thread", aliceTok, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("thread via %s: %d %s", id, rec.Code, rec.Body.String())
		}
		var thr struct {
			Root    string `json:"root"`
			Count   int    `json:"count"`
			Threads []struct {
				Message  models.Message `json:"message"`
				Children []struct {
					Message models.Message `json:"message"`
				} `json:"children"`
			} `json:"threads"`
		}
		decode(t, rec, &thr)
		if thr.Root != m1.ID || thr.Count != 2 {
			t.Fatalf("thread shape: root=%s count=%d", thr.Root, thr.Count)
		}
		if len(thr.Threads) != 1 || thr.Threads[0].Message.ID != m1.ID {
			t.Fatalf("forest roots: %+v", thr.Threads)
		}
		if len(thr.Threads[0].Children) != 1 || thr.Threads[0].Children[0].Message.ID != m2.ID {
			t.Fatalf("reply nesting: %+v", thr.Threads[0])
		}
	}

	// inbox and outbox views
	rec = p.do(t, http.MethodGet, "/v1/messages?box=outbox", aliceTok, nil)
	var box struct {
		Messages []models.Message `json:"messages"`
	}
	decode(t, rec, &box)
	if len(box.Messages) != 1 || box.Messages[0].ID != m1.ID {
		t.Fatalf("alice outbox: %+v", box.Messages)
	}
	rec = p.do(t, http.MethodGet, "/v1/messages", aliceTok, nil)
	decode(t, rec, &box)
	if len(box.Messages) != 1 || box.Messages[0].ID != m2.ID {
		t.Fatalf("alice inbox: %+v", box.Messages)
	}
	if rec := p.do(t, http.MethodGet, "/v1/messages?box=trash", aliceTok, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad box: %d", rec.Code)
	}
}

func TestSurveyVoting(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	board := p.seed(t, "bob@example.com", "hunter22", models.RoleBoard)
	ownerTok := p.token(t, owner)
	boardTok := p.token(t, board)

	def := map[string]interface{}{
		"title": "Pool hours", "question": "Extend evening hours?",
		"options": []string{"yes", "no"},
	}
	if rec := p.do(t, http.MethodPost, "/v1/surveys", ownerTok, def); rec.Code != http.StatusForbidden {
		t.Fatalf("owner creating survey: %d", rec.Code)
	}
	rec := p.do(t, http.MethodPost, "/v1/surveys", boardTok, def)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create survey: %d %s", rec.Code, rec.Body.String())
	}
	var s models.Survey
	decode(t, rec, &s)

	if rec := p.do(t, http.MethodPost, "/v1/surveys/"+s.ID+"/responses", ownerTok, map[string]int{"choice": 5}); rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range choice: %d", rec.Code)
	}
	if rec := p.do(t, http.MethodPost, "/v1/surveys/"+s.ID+"/responses", ownerTok, map[string]int{"choice": 1}); rec.Code != http.StatusCreated {
		t.Fatalf("vote: %d", rec.Code)
	}
	// re-voting replaces the earlier choice
	if rec := p.do(t, http.MethodPost, "/v1/surveys/"+s.ID+"/responses", ownerTok, map[string]int{"choice": 0}); rec.Code != http.StatusCreated {
		t.Fatalf("re-vote: %d", rec.Code)
	}

	rec = p.do(t, http.MethodGet, "/v1/surveys/"+s.ID+"/results", ownerTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("results: %d", rec.Code)
	}
	var res struct {
		Counts []int `json:"counts"`
		Total  int   `json:"total"`
	}
	decode(t, rec, &res)
	if res.Total != 1 || len(res.Counts) != 2 || res.Counts[0] != 1 || res.Counts[1] != 0 {
		t.Fatalf("tally: %+v", res)
	}

	// closed surveys reject votes
	closed := map[string]interface{}{
		"title": "Old vote", "question": "Done?",
		"options":   []string{"yes", "no"},
		"closes_ts": time.Now().Add(-time.Hour).UnixNano(),
	}
	rec = p.do(t, http.MethodPost, "/v1/surveys", boardTok, closed)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create closed survey: %d", rec.Code)
	}
	var cs models.Survey
	decode(t, rec, &cs)
	if rec := p.do(t, http.MethodPost, "/v1/surveys/"+cs.ID+"/responses", ownerTok, map[string]int{"choice": 0}); rec.Code != http.StatusConflict {
		t.Fatalf("vote on closed survey: %d", rec.Code)
	}
}

func TestDocumentUploadDownload(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	board := p.seed(t, "bob@example.com", "hunter22", models.RoleBoard)
	ownerTok := p.token(t, owner)
	boardTok := p.token(t, board)

	content := []byte("2026 budget line items")
	upload := func(tok, name string) *httptest.ResponseRecorder {
		path := "/v1/documents"
		if name != "" {
			path += "?name=" + name
		}
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(content))
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		p.h.ServeHTTP(rec, req)
		return rec
	}

	if rec := upload(ownerTok, "budget.txt"); rec.Code != http.StatusForbidden {
		t.Fatalf("owner upload: %d", rec.Code)
	}
	if rec := upload(boardTok, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("nameless upload: %d", rec.Code)
	}
	rec := upload(boardTok, "budget.txt")
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var d models.Document
	decode(t, rec, &d)
	if d.Size != int64(len(content)) || d.UploadedBy != board.ID {
		t.Fatalf("document meta: %+v", d)
	}

	rec = p.do(t, http.MethodGet, "/v1/documents/"+d.ID, ownerTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatalf("content mismatch: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Fatalf("content type: %q", ct)
	}

	rec = p.do(t, http.MethodGet, "/v1/documents", ownerTok, nil)
	var list struct {
		Documents []models.Document `json:"documents"`
	}
	decode(t, rec, &list)
	if len(list.Documents) != 1 {
		t.Fatalf("list: %+v", list.Documents)
	}
}

func TestAnnouncementsNewestFirst(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	board := p.seed(t, "bob@example.com", "hunter22", models.RoleBoard)
	ownerTok := p.token(t, owner)
	boardTok := p.token(t, board)

	if rec := p.do(t, http.MethodPost, "/v1/announcements", ownerTok, map[string]string{
		"title": "nope", "body": "x",
	}); rec.Code != http.StatusForbidden {
		t.Fatalf("owner posting announcement: %d", rec.Code)
	}
	for _, title := range []string{"first", "second"} {
		rec := p.do(t, http.MethodPost, "/v1/announcements", boardTok, map[string]string{
			"title": title, "body": "details",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("post %s: %d %s", title, rec.Code, rec.Body.String())
		}
	}

	rec := p.do(t, http.MethodGet, "/v1/announcements", ownerTok, nil)
	var list struct {
		Announcements []models.Announcement `json:"announcements"`
	}
	decode(t, rec, &list)
	if len(list.Announcements) != 2 || list.Announcements[0].Title != "second" {
		t.Fatalf("order: %+v", list.Announcements)
	}
}

func TestUpdateSelfKeepsProtectedFields(t *testing.T) {
	p := newPortal(t)
	owner := p.seed(t, "alice@example.com", "hunter22", models.RoleOwner)
	tok := p.token(t, owner)

	rec := p.do(t, http.MethodPut, "/v1/owners/me", tok, map[string]string{
		"name": "Alice B.", "phone": "555-0100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update self: %d %s", rec.Code, rec.Body.String())
	}
	got, err := store.GetOwner(owner.ID)
	if err != nil {
		t.Fatalf("GetOwner: %v", err)
	}
	if got.Name != "Alice B." || got.Phone != "555-0100" {
		t.Fatalf("fields not updated: %+v", got)
	}
	if got.Email != owner.Email || got.Role != owner.Role || got.PasswordHash == "" {
		t.Fatalf("protected fields changed: %+v", got)
	}
}
