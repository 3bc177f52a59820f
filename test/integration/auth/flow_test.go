// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

//go:build integration

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/auramatch/auramatch/internal/auth"
)

// browser is an HTTP client with its own cookie jar.
type browser struct {
	client *http.Client
}

func newBrowser() *browser {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &browser{client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}

type apiResponse struct {
	Status int
	Body   map[string]any
}

func (b *browser) do(method, path, body string) apiResponse {
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode}
	if resp.StatusCode != http.StatusNoContent {
		Expect(json.NewDecoder(resp.Body).Decode(&out.Body)).To(Succeed())
	}
	return out
}

func (b *browser) sessionToken() string {
	u, err := url.Parse(env.server.URL)
	Expect(err).NotTo(HaveOccurred())
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == auth.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func userField(r apiResponse, field string) any {
	user, ok := r.Body["user"].(map[string]any)
	Expect(ok).To(BeTrue(), "response has no user object: %v", r.Body)
	return user[field]
}

const registerA = `{"email":"a@x.com","password":"longenough1","display_name":"A"}`

var _ = Describe("Auth flow", func() {
	BeforeEach(func() {
		cleanupDatabase(env.ctx, env.pool)
	})

	It("registers, resolves, rejects bad credentials and logs out", func() {
		b := newBrowser()

		By("registering")
		reg := b.do(http.MethodPost, "/api/register", registerA)
		Expect(reg.Status).To(Equal(http.StatusCreated))
		Expect(userField(reg, "email")).To(Equal("a@x.com"))
		Expect(userField(reg, "display_name")).To(Equal("A"))
		Expect(reg.Body["user"]).NotTo(HaveKey("password_hash"))
		Expect(b.sessionToken()).To(HaveLen(2 * auth.SessionTokenBytes))

		By("resolving the current user from the cookie")
		me := b.do(http.MethodGet, "/api/me", "")
		Expect(me.Status).To(Equal(http.StatusOK))
		Expect(userField(me, "id")).To(Equal(userField(reg, "id")))

		By("rejecting a wrong password")
		bad := newBrowser().do(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"wrongpassword"}`)
		Expect(bad.Status).To(Equal(http.StatusUnauthorized))

		By("logging out")
		Expect(b.do(http.MethodPost, "/api/logout", "").Status).To(Equal(http.StatusNoContent))
		Expect(b.sessionToken()).To(BeEmpty())
		Expect(b.do(http.MethodGet, "/api/me", "").Status).To(Equal(http.StatusUnauthorized))

		By("logging out again")
		Expect(b.do(http.MethodPost, "/api/logout", "").Status).To(Equal(http.StatusNoContent))
	})

	It("keeps other sessions alive when one logs out", func() {
		first := newBrowser()
		Expect(first.do(http.MethodPost, "/api/register", registerA).Status).To(Equal(http.StatusCreated))

		second := newBrowser()
		login := second.do(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"longenough1"}`)
		Expect(login.Status).To(Equal(http.StatusOK))
		Expect(second.sessionToken()).NotTo(Equal(first.sessionToken()))

		Expect(first.do(http.MethodPost, "/api/logout", "").Status).To(Equal(http.StatusNoContent))

		Expect(first.do(http.MethodGet, "/api/me", "").Status).To(Equal(http.StatusUnauthorized))
		Expect(second.do(http.MethodGet, "/api/me", "").Status).To(Equal(http.StatusOK))
	})

	It("answers unknown emails and wrong passwords identically", func() {
		Expect(newBrowser().do(http.MethodPost, "/api/register", registerA).Status).To(Equal(http.StatusCreated))

		wrong := newBrowser().do(http.MethodPost, "/api/login", `{"email":"a@x.com","password":"nope-nope"}`)
		unknown := newBrowser().do(http.MethodPost, "/api/login", `{"email":"ghost@x.com","password":"nope-nope"}`)

		Expect(wrong.Status).To(Equal(http.StatusUnauthorized))
		Expect(unknown).To(Equal(wrong))
	})

	It("rejects duplicate and invalid registrations without side effects", func() {
		Expect(newBrowser().do(http.MethodPost, "/api/register", registerA).Status).To(Equal(http.StatusCreated))

		dup := newBrowser().do(http.MethodPost, "/api/register", registerA)
		Expect(dup.Status).To(Equal(http.StatusConflict))

		short := newBrowser().do(http.MethodPost, "/api/register", `{"email":"b@x.com","password":"short"}`)
		Expect(short.Status).To(Equal(http.StatusBadRequest))

		var users, profiles int
		Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM users").Scan(&users)).To(Succeed())
		Expect(env.pool.QueryRow(env.ctx, "SELECT count(*) FROM profiles").Scan(&profiles)).To(Succeed())
		Expect(users).To(Equal(1))
		Expect(profiles).To(Equal(1))
	})

	It("lets exactly one of many concurrent same-email registrations win", func() {
		const attempts = 5
		statuses := make(chan int, attempts)

		var wg sync.WaitGroup
		for range attempts {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				statuses <- newBrowser().do(http.MethodPost, "/api/register", registerA).Status
			}()
		}
		wg.Wait()
		close(statuses)

		counts := map[int]int{}
		for s := range statuses {
			counts[s]++
		}
		Expect(counts).To(Equal(map[int]int{
			http.StatusCreated:  1,
			http.StatusConflict: attempts - 1,
		}))
	})

	It("treats expired sessions as anonymous", func() {
		b := newBrowser()
		Expect(b.do(http.MethodPost, "/api/register", registerA).Status).To(Equal(http.StatusCreated))

		_, err := env.pool.Exec(env.ctx, "UPDATE sessions SET expires_at = now() - interval '1 second'")
		Expect(err).NotTo(HaveOccurred())

		Expect(b.do(http.MethodGet, "/api/me", "").Status).To(Equal(http.StatusUnauthorized))
	})
})
