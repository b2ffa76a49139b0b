package booksearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/chapterly/internal/constants"
	"github.com/julianstephens/chapterly/internal/keyring"
)

func TestSearch(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		fmt.Fprint(w, `{"version":"20131101","totalResults":2,"item":[
			{"title":"토비의 스프링 3.1","author":"이일민 지음","publisher":"에이콘출판","pubDate":"2012-09-21","isbn":"8960773433","isbn13":"9788960773431","cover":"https://image.aladin.co.kr/a.jpg"},
			{"title":"Spring in Action","author":"Craig Walls","isbn":"1617294942","description":"Craig\'s book"}
		]};`)
	}))
	defer srv.Close()

	c := New("secret", WithBaseURL(srv.URL))
	items, err := c.Search(context.Background(), " 스프링 ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].BestISBN() != "9788960773431" || items[1].BestISBN() != "1617294942" {
		t.Errorf("ISBNs = %q, %q", items[0].BestISBN(), items[1].BestISBN())
	}
	if items[1].Description != "Craig's book" {
		t.Errorf("Description = %q", items[1].Description)
	}

	want := map[string]string{
		"ttbkey": "secret", "Query": "스프링", "QueryType": "Title", "MaxResults": "10",
		"SearchTarget": "Book", "output": "js", "Version": "20131101",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("query param %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("Query") {
		case "apierror":
			fmt.Fprint(w, `{"errorCode":1,"errorMessage":"invalid ttbkey"}`)
		case "status":
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, `<html>`)
		}
	}))
	defer srv.Close()
	c := New("k", WithBaseURL(srv.URL))

	for _, q := range []string{"apierror", "status", "garbage"} {
		if _, err := c.Search(context.Background(), q); err == nil {
			t.Errorf("Search(%q) should fail", q)
		}
	}
	if _, err := c.Search(context.Background(), "  "); err == nil {
		t.Error("empty query should fail")
	}
	if _, err := New("").Search(context.Background(), "go"); !errors.Is(err, ErrNoKey) {
		t.Errorf("missing key error = %v, want ErrNoKey", err)
	}
}

func TestSearchHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New("k", WithBaseURL(srv.URL)).Search(ctx, "go")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Search() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestResolveKey(t *testing.T) {
	gokeyring.MockInit()

	t.Setenv(constants.EnvAladinKey, "")
	_ = keyring.Delete(keyring.AladinKey)
	if _, err := ResolveKey(); !errors.Is(err, ErrNoKey) {
		t.Errorf("ResolveKey() error = %v, want ErrNoKey", err)
	}

	if err := keyring.Set(keyring.AladinKey, "from-keyring"); err != nil {
		t.Fatal(err)
	}
	if k, _ := ResolveKey(); k != "from-keyring" {
		t.Errorf("ResolveKey() = %q, want keyring value", k)
	}

	t.Setenv(constants.EnvAladinKey, "from-env")
	if k, _ := ResolveKey(); k != "from-env" {
		t.Errorf("ResolveKey() = %q, want env value", k)
	}
}
