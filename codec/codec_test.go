package codec

import "testing"

func TestReduce(t *testing.T) {
	tt := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"triple prefix", "app-", "app-app-app-x", "app-x"},
		{"double prefix", "app-", "app-app-x", "app-x"},
		{"single prefix", "app-", "app-x", "app-x"},
		{"no prefix", "app-", "other", "other"},
		{"run in the middle", "app-", "zz-app-app-x", "zz-app-x"},
		{"two separate runs", "p", "ppxpppy", "pxpy"},
		{"regexp metacharacters", "a.b*", "a.b*a.b*k", "a.b*k"},
		{"metacharacters do not match loosely", "a.b", "aXbaXbk", "aXbaXbk"},
		{"empty prefix", "", "anything", "anything"},
		{"empty key", "app-", "", ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(tc.prefix, tc.key)
			if got != tc.want {
				t.Fatalf("Reduce(%q, %q) = %q, want %q", tc.prefix, tc.key, got, tc.want)
			}
			if again := Reduce(tc.prefix, got); again != got {
				t.Fatalf("Reduce is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	const prefix = "jStoreApp-"

	if got := Resolve(prefix, "session"); got != "jStoreApp-session" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Resolve(prefix, "jStoreApp-session"); got != "jStoreApp-session" {
		t.Fatalf("already prefixed identifier not collapsed: %q", got)
	}
	if got := Encode(prefix, "jStoreApp-session"); got != "jStoreApp-jStoreApp-session" {
		t.Fatalf("Encode must not reduce: %q", got)
	}
}

func TestNamespaceHelpers(t *testing.T) {
	const prefix = "ns-"

	if !HasNamespace(prefix, "ns-a") {
		t.Fatal("expected ns-a in namespace")
	}
	if HasNamespace(prefix, "other-ns-a") {
		t.Fatal("prefix must be leading")
	}
	if got := Logical(prefix, "ns-ns-a"); got != "a" {
		t.Fatalf("Logical = %q, want a", got)
	}
	if got := Logical(prefix, "plain"); got != "plain" {
		t.Fatalf("Logical = %q, want plain", got)
	}
}
