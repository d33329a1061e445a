package handlers_test

import (
	"net/http"
	"testing"
)

func TestRegisterFirstUserBecomesSuperadmin(t *testing.T) {
	store := newMemStore()
	r, jwt := newTestRouter(store)

	w := doJSON(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"email":    "first@example.com",
		"password": "password123",
	})

	mustStatus(t, w, http.StatusCreated)
	body := decodeBody(t, w)

	if body["role"] != "Superadmin" {
		t.Errorf("first registrant role = %v, want Superadmin", body["role"])
	}

	token, _ := body["token"].(string)
	claims, err := jwt.Verify(token)

	if err != nil {
		t.Fatalf("returned token does not verify: %v", err)
	}

	if string(claims.Role) != "Superadmin" {
		t.Errorf("token role = %q, want Superadmin", claims.Role)
	}

	// every later registrant is a plain User
	w = doJSON(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"email":    "second@example.com",
		"password": "password123",
	})

	mustStatus(t, w, http.StatusCreated)

	if body := decodeBody(t, w); body["role"] != "User" {
		t.Errorf("second registrant role = %v, want User", body["role"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	r, _ := newTestRouter(store)

	payload := map[string]string{"email": "dup@example.com", "password": "password123"}

	mustStatus(t, doJSON(t, r, http.MethodPost, "/api/register", "", payload), http.StatusCreated)

	w := doJSON(t, r, http.MethodPost, "/api/register", "", payload)
	mustStatus(t, w, http.StatusBadRequest)

	if body := decodeBody(t, w); body["message"] != "User already exists" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	store := newMemStore()
	r, jwt := newTestRouter(store)

	creds := map[string]string{"email": "roundtrip@example.com", "password": "password123"}

	mustStatus(t, doJSON(t, r, http.MethodPost, "/api/register", "", creds), http.StatusCreated)

	w := doJSON(t, r, http.MethodPost, "/api/login", "", creds)
	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)

	if body["id"] == nil || body["id"] == "" {
		t.Error("login response missing id")
	}

	token, _ := body["token"].(string)
	claims, err := jwt.Verify(token)

	if err != nil {
		t.Fatalf("login token does not verify: %v", err)
	}

	// the embedded role matches the stored role
	u, err := store.GetByEmail(nil, creds["email"])
	if err != nil {
		t.Fatalf("stored user: %v", err)
	}

	if claims.Role != u.Role {
		t.Errorf("token role %q != stored role %q", claims.Role, u.Role)
	}
}

func TestLoginNeverDistinguishesFailures(t *testing.T) {
	store := newMemStore()
	r, _ := newTestRouter(store)

	mustStatus(t, doJSON(t, r, http.MethodPost, "/api/register", "", map[string]string{
		"email": "known@example.com", "password": "password123",
	}), http.StatusCreated)

	unknown := doJSON(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"email": "nobody@example.com", "password": "password123",
	})
	wrongPass := doJSON(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"email": "known@example.com", "password": "wrong-password",
	})

	mustStatus(t, unknown, http.StatusBadRequest)
	mustStatus(t, wrongPass, http.StatusBadRequest)

	// same status, same message: the response never says which emails exist
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Errorf("unknown email and wrong password answers differ: %q vs %q",
			unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestCheckAuth(t *testing.T) {
	store := newMemStore()
	r, jwt := newTestRouter(store)

	u, token := seedUser(t, store, jwt, "check@example.com", "Admin", nil)

	w := doJSON(t, r, http.MethodGet, "/api/check-auth", token, nil)
	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	userInfo, _ := body["user"].(map[string]any)

	if userInfo["id"] != u.ID || userInfo["role"] != "Admin" {
		t.Errorf("check-auth user = %v", userInfo)
	}

	mustStatus(t, doJSON(t, r, http.MethodGet, "/api/check-auth", "not-a-token", nil), http.StatusUnauthorized)
	mustStatus(t, doJSON(t, r, http.MethodGet, "/api/check-auth", "", nil), http.StatusUnauthorized)
}

func TestMe(t *testing.T) {
	store := newMemStore()
	r, jwt := newTestRouter(store)

	u, token := seedUser(t, store, jwt, "me@example.com", "Superuser", nil)

	w := doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)

	if body["email"] != u.Email || body["role"] != "Superuser" {
		t.Errorf("me = %v", body)
	}

	// token outlives the account: subject deleted => 404
	if err := store.Delete(nil, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mustStatus(t, doJSON(t, r, http.MethodGet, "/api/me", token, nil), http.StatusNotFound)
}

func TestLogoutIsBestEffort(t *testing.T) {
	store := newMemStore()
	r, jwt := newTestRouter(store)

	_, token := seedUser(t, store, jwt, "logout@example.com", "User", nil)

	mustStatus(t, doJSON(t, r, http.MethodPost, "/api/logout", token, nil), http.StatusNoContent)

	// nothing durable happened: the token still works
	mustStatus(t, doJSON(t, r, http.MethodGet, "/api/check-auth", token, nil), http.StatusOK)
}

func TestRegisterValidation(t *testing.T) {
	store := newMemStore()
	r, _ := newTestRouter(store)

	cases := []map[string]string{
		{"email": "not-an-email", "password": "password123"},
		{"email": "ok@example.com", "password": "short"},
		{"password": "password123"},
		{"email": "ok@example.com"},
	}

	for _, c := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/register", "", c)
		if w.Code != http.StatusBadRequest {
			t.Errorf("register %v: status = %d, want 400", c, w.Code)
		}
	}
}
